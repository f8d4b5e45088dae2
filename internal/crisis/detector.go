// Package crisis detects crisis intent in user queries and surfaces crisis
// resources.
//
// The safety-critical invariant of this package: detection never silently
// fails. A classifier error is converted into a positive detection, and a
// resource-store failure during a positive detection falls back to a
// compiled-in minimal resource set. A missed crisis is a worse outcome than
// a false positive.
package crisis

import (
	"context"
	"fmt"
	"log/slog"
)

// fallbackResources is the minimal safety net returned when the resource
// store is unreachable during a positive detection. The 988 Lifeline entry
// mirrors the seeded priority-1 row.
var fallbackResources = []Resource{
	{
		Name:        "988 Suicide & Crisis Lifeline",
		Phone:       "988",
		URL:         "https://988lifeline.org",
		Description: "Free, confidential support 24/7 for people in suicidal crisis or emotional distress. Call or text 988.",
		Priority:    1,
		Active:      true,
	},
	{
		Name:        "911 Emergency Services",
		Phone:       "911",
		Description: "Call 911 if you or someone else is in immediate danger.",
		Priority:    2,
		Active:      true,
	},
}

// Detector classifies queries and, on a positive detection, returns the full
// active resource set in priority order. Resources are never filtered by
// query relevance once triggered.
type Detector struct {
	classifier Classifier
	resources  ResourceLister
	logger     *slog.Logger
}

// NewDetector creates a Detector. classifier defaults to KeywordClassifier
// when nil.
func NewDetector(classifier Classifier, resources ResourceLister, logger *slog.Logger) (*Detector, error) {
	if resources == nil {
		return nil, fmt.Errorf("resource lister is required")
	}
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{classifier: classifier, resources: resources, logger: logger}, nil
}

// Detect classifies queryText and returns the crisis flag with the ordered
// resource list. It never returns an error: classifier failures assume
// crisis, and resource lookup failures fall back to fallbackResources so the
// safety net survives a database outage.
func (d *Detector) Detect(ctx context.Context, queryText string) (bool, []Resource) {
	isCrisis, err := d.classifier.Classify(ctx, queryText)
	if err != nil {
		// Fail safe: treat an erroring classifier as a positive detection.
		d.logger.Error("crisis classifier failed, assuming crisis", "error", err)
		isCrisis = true
	}

	if !isCrisis {
		return false, nil
	}

	resources, err := d.resources.ActiveResources(ctx)
	if err != nil {
		d.logger.Error("crisis resource lookup failed, using fallback set", "error", err)
		return true, fallbackResources
	}
	if len(resources) == 0 {
		d.logger.Warn("no active crisis resources configured, using fallback set")
		return true, fallbackResources
	}

	d.logger.Info("crisis detected", "resources", len(resources))
	return true, resources
}
