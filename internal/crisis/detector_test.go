package crisis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carenav/carenav/internal/testutil"
)

type stubClassifier struct {
	crisis bool
	err    error
	calls  int
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (bool, error) {
	s.calls++
	return s.crisis, s.err
}

type stubLister struct {
	resources []Resource
	err       error
	calls     int
}

func (s *stubLister) ActiveResources(_ context.Context) ([]Resource, error) {
	s.calls++
	return s.resources, s.err
}

func testResources() []Resource {
	return []Resource{
		{ID: 1, Name: "988 Suicide & Crisis Lifeline", Phone: "988", Priority: 1, Active: true},
		{ID: 2, Name: "Crisis Text Line", Phone: "741741", Priority: 2, Active: true},
	}
}

func TestNewDetector(t *testing.T) {
	t.Run("requires resource lister", func(t *testing.T) {
		_, err := NewDetector(nil, nil, testutil.DiscardLogger())
		require.Error(t, err)
	})

	t.Run("defaults to keyword classifier", func(t *testing.T) {
		d, err := NewDetector(nil, &stubLister{resources: testResources()}, testutil.DiscardLogger())
		require.NoError(t, err)

		detected, _ := d.Detect(context.Background(), "I feel hopeless")
		assert.True(t, detected)
	})
}

func TestDetector_Detect(t *testing.T) {
	ctx := context.Background()

	t.Run("no crisis returns nothing", func(t *testing.T) {
		lister := &stubLister{resources: testResources()}
		d, err := NewDetector(&stubClassifier{crisis: false}, lister, testutil.DiscardLogger())
		require.NoError(t, err)

		detected, resources := d.Detect(ctx, "how do I apply for the waiver")
		assert.False(t, detected)
		assert.Empty(t, resources)
		assert.Zero(t, lister.calls, "resources should not be fetched without a detection")
	})

	t.Run("crisis returns active resources in order", func(t *testing.T) {
		d, err := NewDetector(&stubClassifier{crisis: true}, &stubLister{resources: testResources()}, testutil.DiscardLogger())
		require.NoError(t, err)

		detected, resources := d.Detect(ctx, "I want to die")
		assert.True(t, detected)
		require.Len(t, resources, 2)
		assert.Equal(t, "988 Suicide & Crisis Lifeline", resources[0].Name)
	})

	t.Run("classifier error assumes crisis", func(t *testing.T) {
		d, err := NewDetector(
			&stubClassifier{err: errors.New("model unavailable")},
			&stubLister{resources: testResources()},
			testutil.DiscardLogger(),
		)
		require.NoError(t, err)

		detected, resources := d.Detect(ctx, "any query at all")
		assert.True(t, detected, "detection must fail safe")
		assert.NotEmpty(t, resources)
	})

	t.Run("resource lookup failure falls back", func(t *testing.T) {
		d, err := NewDetector(
			&stubClassifier{crisis: true},
			&stubLister{err: errors.New("connection refused")},
			testutil.DiscardLogger(),
		)
		require.NoError(t, err)

		detected, resources := d.Detect(ctx, "I feel hopeless")
		assert.True(t, detected)
		require.NotEmpty(t, resources, "fallback resources must survive a database outage")
		assert.Equal(t, "988 Suicide & Crisis Lifeline", resources[0].Name)
	})

	t.Run("empty resource set falls back", func(t *testing.T) {
		d, err := NewDetector(&stubClassifier{crisis: true}, &stubLister{}, testutil.DiscardLogger())
		require.NoError(t, err)

		detected, resources := d.Detect(ctx, "I feel hopeless")
		assert.True(t, detected)
		require.NotEmpty(t, resources)
		assert.Equal(t, "988 Suicide & Crisis Lifeline", resources[0].Name)
	})
}
