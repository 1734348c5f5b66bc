package catalog

func fixed(n int) DurationInfo {
	return DurationInfo{MinMinutes: &n, MaxMinutes: &n}
}

// SeedAssessments returns the built-in demo catalog used in mock mode
// and by the end-to-end tests. Embeddings are not populated; callers
// run the indexer (or the mock embedder) before matching.
func SeedAssessments() []Assessment {
	ranged := func(lo, hi int) DurationInfo {
		return DurationInfo{MinMinutes: &lo, MaxMinutes: &hi, IsVariableDuration: true}
	}

	rows := []struct {
		a   Assessment
		dur DurationInfo
	}{
		{
			a: Assessment{
				ID:   "1",
				Name: "Verbal Reasoning Assessment",
				Description: "Test for verbal reasoning skills and language comprehension. " +
					"Evaluates ability to understand and analyze written information.",
				URL:           "/solutions/products/product-catalog/view/verbal-reasoning-assessment/",
				RemoteTesting: true,
				TestTypes:     []string{"Ability & Aptitude"},
				JobLevels:     []string{"Entry-Level", "Graduate", "Professional Individual Contributor"},
				Languages:     []string{"English", "French", "German"},
				KeyFeatures:   []string{"Online", "Standardized", "Mobile Compatible"},
				DurationText:  "30",
			},
			dur: fixed(30),
		},
		{
			a: Assessment{
				ID:   "2",
				Name: "Numerical Reasoning Assessment",
				Description: "Test for numerical reasoning skills and data interpretation. " +
					"Measures ability to analyze numerical data and make logical decisions.",
				URL:           "/solutions/products/product-catalog/view/numerical-reasoning-assessment/",
				RemoteTesting: true,
				TestTypes:     []string{"Ability & Aptitude"},
				JobLevels:     []string{"Professional Individual Contributor", "Manager", "Executive"},
				Languages:     []string{"English", "Spanish", "French"},
				KeyFeatures:   []string{"Online", "Standardized", "Calculator Provided"},
				DurationText:  "40",
			},
			dur: fixed(40),
		},
		{
			a: Assessment{
				ID:   "3",
				Name: "Inductive Reasoning Assessment",
				Description: "Test for inductive reasoning skills and pattern recognition. " +
					"Evaluates ability to identify patterns and apply logical thinking.",
				URL:           "/solutions/products/product-catalog/view/inductive-reasoning-assessment/",
				RemoteTesting: true,
				AdaptiveIRT:   true,
				TestTypes:     []string{"Ability & Aptitude"},
				JobLevels:     []string{"Mid-Professional", "Professional Individual Contributor"},
				Languages:     []string{"English", "French", "Chinese"},
				KeyFeatures:   []string{"Online", "Standardized", "Adaptive"},
				DurationText:  "25",
			},
			dur: fixed(25),
		},
		{
			a: Assessment{
				ID:   "4",
				Name: "Personality Assessment",
				Description: "Comprehensive personality assessment that measures work-related " +
					"personality traits and behavioral preferences.",
				URL:           "/solutions/products/product-catalog/view/personality-assessment/",
				RemoteTesting: true,
				TestTypes:     []string{"Personality & Behavior"},
				JobLevels:     []string{"General Population"},
				Languages:     []string{"English", "French", "German", "Spanish", "Chinese"},
				KeyFeatures:   []string{"Online", "Normative", "GDPR Compliant"},
				DurationText:  "25 to 35",
			},
			dur: ranged(25, 35),
		},
		{
			a: Assessment{
				ID:   "5",
				Name: "Coding Skills Assessment",
				Description: "Practical coding assessment to evaluate software development skills " +
					"and problem-solving abilities in real-world programming scenarios.",
				URL:           "/solutions/products/product-catalog/view/coding-skills-assessment/",
				RemoteTesting: true,
				TestTypes:     []string{"Knowledge & Skills"},
				JobLevels:     []string{"Entry-Level", "Professional Individual Contributor"},
				Languages:     []string{"English"},
				KeyFeatures:   []string{"Online", "Live Coding", "Multiple Languages"},
				DurationText:  "60",
			},
			dur: fixed(60),
		},
		{
			a: Assessment{
				ID:   "6",
				Name: "Situational Judgment Test",
				Description: "Assesses decision-making and judgment in workplace scenarios. " +
					"Evaluates how candidates approach real-world job situations.",
				URL:           "/solutions/products/product-catalog/view/situational-judgment-test/",
				RemoteTesting: true,
				TestTypes:     []string{"Biodata & Situational Judgement"},
				JobLevels:     []string{"Entry-Level", "Supervisor", "Manager"},
				Languages:     []string{"English", "Spanish", "French"},
				KeyFeatures:   []string{"Online", "Scenario-based", "Video Elements"},
				DurationText:  "30",
			},
			dur: fixed(30),
		},
		{
			a: Assessment{
				ID:   "7",
				Name: "Leadership Assessment",
				Description: "Evaluates leadership potential and executive competencies through " +
					"a combination of cognitive and behavioral measures.",
				URL:           "/solutions/products/product-catalog/view/leadership-assessment/",
				RemoteTesting: true,
				TestTypes:     []string{"Competencies", "Development & 360"},
				JobLevels:     []string{"Manager", "Director", "Executive"},
				Languages:     []string{"English", "French", "German"},
				KeyFeatures:   []string{"Online", "Competency-based", "Benchmarking"},
				DurationText:  "45",
			},
			dur: fixed(45),
		},
	}

	out := make([]Assessment, len(rows))
	for i, r := range rows {
		a := r.a
		a.DurationMinMinutes = r.dur.MinMinutes
		a.DurationMaxMinutes = r.dur.MaxMinutes
		a.IsUntimed = r.dur.IsUntimed
		a.IsVariableDuration = r.dur.IsVariableDuration
		out[i] = a
	}
	return out
}
