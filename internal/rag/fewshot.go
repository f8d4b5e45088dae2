package rag

// DefaultFewShotExamples returns the built-in persona-matched example
// exchanges embedded in prompts. The assembler selects the subset matching
// the request's view type.
func DefaultFewShotExamples() []FewShotExample {
	return []FewShotExample{
		{
			View:     ViewProvider,
			Question: "What screening instruments are recommended for early autism identification?",
			Answer: "Per AAP guidance, administer the M-CHAT-R/F at the 18- and 24-month well-child visits. " +
				"A positive screen warrants referral for comprehensive diagnostic evaluation (ADOS-2) and " +
				"simultaneous referral to the NC Infant-Toddler Program; do not delay early intervention " +
				"pending a confirmed diagnosis.",
		},
		{
			View:     ViewProvider,
			Question: "What is the referral pathway for the NC Innovations Waiver?",
			Answer: "Refer the family to their LME/MCO to request a Registry of Unmet Needs placement for the " +
				"NC Innovations Waiver. Document the developmental disability diagnosis before age 22 and " +
				"current adaptive functioning; waiver slots are limited and waitlist position depends on " +
				"registration date.",
		},
		{
			View:     ViewPatient,
			Question: "How do I get my child evaluated for autism in North Carolina?",
			Answer: "Start with your child's doctor and ask for an autism screening. If the screening raises " +
				"concerns, the doctor can refer you for a full evaluation. If your child is under 3, you can " +
				"also call the NC Infant-Toddler Program yourself — you don't need a doctor's referral, and " +
				"the evaluation is free.",
		},
		{
			View:     ViewPatient,
			Question: "What help can we get paying for therapy?",
			Answer: "There are a few options. Most health plans in North Carolina must cover autism services " +
				"like ABA therapy. Medicaid can also help, and the NC Innovations Waiver offers extra support, " +
				"though there is a waiting list — it's worth signing up early. The Autism Society of North " +
				"Carolina can walk you through the paperwork for free.",
		},
	}
}
