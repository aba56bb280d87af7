package rubric

// Item identifiers of the UDRF rubric.
const (
	ItemFacultyPositions   = "I.1"
	ItemFacultyPhD         = "I.2"
	ItemJournalPapers      = "I.3"
	ItemBooksChapters      = "I.4"
	ItemPatents            = "I.5"
	ItemResearchGrants     = "I.6"
	ItemConsultancy        = "I.7"
	ItemFacultyAwards      = "I.8"
	ItemPhDsAwarded        = "I.9"
	ItemFDPsAttended       = "I.10"
	ItemInvitedTalks       = "I.11"
	ItemResearchFacilities = "I.12"
	ItemResearchFellows    = "I.13"

	ItemNEPInitiatives    = "II.1"
	ItemMOOCs             = "II.2"
	ItemMultidisciplinary = "II.3"
	ItemDemandRatio       = "II.4"
	ItemABCRegistration   = "II.5"
	ItemSkillCourses      = "II.6"
	ItemIKS               = "II.7"
	ItemInternships       = "II.8"

	ItemResultDeclaration = "III.1"
	ItemBudgetUtilisation = "III.2"
	ItemCommitteeMeetings = "III.3"
	ItemInfrastructure    = "III.4"
	ItemFeedbackSystem    = "III.5"
	ItemGreenPractices    = "III.6"
	ItemAlumniFunding     = "III.7"
	ItemCSRFunding        = "III.8"
	ItemEGovernance       = "III.9"
	ItemStaffTraining     = "III.10"

	ItemPlacement          = "IV.1"
	ItemHigherStudies      = "IV.2"
	ItemCompetitiveExams   = "IV.3"
	ItemStudentAwards      = "IV.4"
	ItemScholarships       = "IV.5"
	ItemPassPercentage     = "IV.6"
	ItemStudentPublication = "IV.7"
	ItemMentoring          = "IV.8"
	ItemStartups           = "IV.9"

	ItemConferences   = "V.1"
	ItemWorkshops     = "V.2"
	ItemMoUs          = "V.3"
	ItemIndustry      = "V.4"
	ItemInternational = "V.5"
	ItemOutreach      = "V.6"
)

// Infrastructure sub-areas scored independently under III.4.
const (
	PartClassrooms   = "classrooms"
	PartLaboratories = "laboratories"
	PartLibrary      = "library"
	PartICT          = "ict"
)

// Default returns a fresh copy of the source UDRF rubric (725 points).
func Default() Rubric {
	return Rubric{
		Sections: []Section{
			facultySection(),
			nepSection(),
			governanceSection(),
			studentSection(),
			conferencesSection(),
		},
		Bands: DefaultNarrativeBands(),
		Units: UnitFactors(),
	}
}

func list(id, label string, per, max float64) Item {
	return Item{ID: id, Label: label, Kind: KindList, PointsPerEntry: per, Max: max}
}

func narrative(id, label string, max float64) Item {
	return Item{ID: id, Label: label, Kind: KindNarrative, Max: max}
}

func percent(id, label string, max float64, rows ...Bracket) Item {
	return Item{ID: id, Label: label, Kind: KindRatio, Percent: true, Max: max, Brackets: NewBracketTable(rows...)}
}

func proportional(id, label string, reference, scale, max float64) Item {
	return Item{ID: id, Label: label, Kind: KindProportional, Reference: reference, Scale: scale, Max: max}
}

func facultySection() Section {
	return Section{
		ID:        SectionFaculty,
		Title:     "Faculty Output, Research & Professional Activities",
		MaxPoints: 300,
		Items: []Item{
			percent(ItemFacultyPositions, "Sanctioned faculty positions filled (%)", 20,
				Bracket{Min: 100, Points: 20}, Bracket{Min: 90, Points: 16}, Bracket{Min: 75, Points: 12},
				Bracket{Min: 50, Points: 8}, Bracket{Min: 25, Points: 4}),
			percent(ItemFacultyPhD, "Faculty with PhD (%)", 20,
				Bracket{Min: 75, Points: 20}, Bracket{Min: 50, Points: 15}, Bracket{Min: 25, Points: 10},
				Bracket{Min: 1, Points: 5}),
			list(ItemJournalPapers, "Journal publications", 3, 60),
			list(ItemBooksChapters, "Books and book chapters", 2, 20),
			list(ItemPatents, "Patents published or granted", 5, 20),
			{
				ID: ItemResearchGrants, Label: "Research grants received (lakh)", Kind: KindMonetary, Max: 30,
				Brackets: NewBracketTable(
					Bracket{Min: 50, Points: 30}, Bracket{Min: 25, Points: 24}, Bracket{Min: 10, Points: 18},
					Bracket{Min: 5, Points: 12}, Bracket{Min: 1, Points: 6}),
			},
			proportional(ItemConsultancy, "Consultancy revenue (lakh)", 10, 20, 20),
			list(ItemFacultyAwards, "Faculty awards and recognitions", 4, 20),
			list(ItemPhDsAwarded, "PhDs awarded under departmental supervision", 5, 25),
			list(ItemFDPsAttended, "Faculty development programmes attended", 2, 20),
			list(ItemInvitedTalks, "Invited talks and resource-person engagements", 2, 15),
			narrative(ItemResearchFacilities, "Research facilities", 10),
			proportional(ItemResearchFellows, "Research fellows per faculty member", 1, 20, 20),
		},
	}
}

func nepSection() Section {
	return Section{
		ID:        SectionNEP,
		Title:     "NEP Initiatives",
		MaxPoints: 100,
		Items: []Item{
			list(ItemNEPInitiatives, "NEP initiatives implemented", 2, 30),
			list(ItemMOOCs, "MOOC courses offered or adopted", 2, 10),
			list(ItemMultidisciplinary, "Multidisciplinary courses offered", 2, 10),
			{
				ID: ItemDemandRatio, Label: "Admission demand ratio (applications per seat)", Kind: KindRatio, Max: 6,
				Brackets: NewBracketTable(Bracket{Min: 5, Points: 6}, Bracket{Min: 3, Points: 4}, Bracket{Min: 1.5, Points: 2}),
			},
			percent(ItemABCRegistration, "Students registered on Academic Bank of Credits (%)", 10,
				Bracket{Min: 75, Points: 10}, Bracket{Min: 50, Points: 7}, Bracket{Min: 25, Points: 4},
				Bracket{Min: 1, Points: 2}),
			list(ItemSkillCourses, "Skill and vocational courses", 2, 10),
			narrative(ItemIKS, "Indian knowledge systems and regional language initiatives", 10),
			percent(ItemInternships, "Students completing internships (%)", 14,
				Bracket{Min: 50, Points: 14}, Bracket{Min: 30, Points: 10}, Bracket{Min: 10, Points: 6},
				Bracket{Min: 1, Points: 2}),
		},
	}
}

func governanceSection() Section {
	return Section{
		ID:        SectionGovernance,
		Title:     "Departmental Governance & Practices",
		MaxPoints: 110,
		Items: []Item{
			{
				ID: ItemResultDeclaration, Label: "Results declared within (days)", Kind: KindStep, Max: 10,
				Steps: StepTable{{UpTo: 30, Points: 10}, {UpTo: 45, Points: 5}},
			},
			proportional(ItemBudgetUtilisation, "Budget utilisation", 1, 15, 15),
			list(ItemCommitteeMeetings, "Statutory committee meetings held", 2, 10),
			{
				ID: ItemInfrastructure, Label: "Infrastructure", Kind: KindMultiNarrative, Max: 20, PartMax: 5,
				Parts: []string{PartClassrooms, PartLaboratories, PartLibrary, PartICT},
			},
			narrative(ItemFeedbackSystem, "Stakeholder feedback system", 10),
			narrative(ItemGreenPractices, "Green and inclusive practices", 10),
			{ID: ItemAlumniFunding, Label: "Alumni funding (lakh)", Kind: KindMonetary, Max: 10, Brackets: MonetaryBrackets()},
			{ID: ItemCSRFunding, Label: "CSR funding (lakh)", Kind: KindMonetary, Max: 10, Brackets: MonetaryBrackets()},
			narrative(ItemEGovernance, "E-governance adoption", 5),
			list(ItemStaffTraining, "Non-teaching staff training programmes", 2, 10),
		},
	}
}

func studentSection() Section {
	return Section{
		ID:        SectionStudent,
		Title:     "Student Support, Achievements & Progression",
		MaxPoints: 140,
		Items: []Item{
			percent(ItemPlacement, "Eligible students placed (%)", 25,
				Bracket{Min: 80, Points: 25}, Bracket{Min: 60, Points: 20}, Bracket{Min: 40, Points: 15},
				Bracket{Min: 20, Points: 10}, Bracket{Min: 1, Points: 5}),
			percent(ItemHigherStudies, "Graduates progressing to higher studies (%)", 15,
				Bracket{Min: 30, Points: 15}, Bracket{Min: 20, Points: 10}, Bracket{Min: 10, Points: 5}),
			list(ItemCompetitiveExams, "Competitive examination qualifiers", 3, 15),
			list(ItemStudentAwards, "Student awards (academic, sports, cultural)", 2, 20),
			proportional(ItemScholarships, "Scholarship and fellowship coverage", 1, 15, 15),
			percent(ItemPassPercentage, "Pass percentage", 15,
				Bracket{Min: 90, Points: 15}, Bracket{Min: 75, Points: 10}, Bracket{Min: 60, Points: 5}),
			list(ItemStudentPublication, "Student research publications", 2, 10),
			narrative(ItemMentoring, "Mentoring and grievance redressal", 10),
			list(ItemStartups, "Student start-ups incubated", 5, 15),
		},
	}
}

func conferencesSection() Section {
	return Section{
		ID:        SectionConferences,
		Title:     "Conferences, Workshops & Collaborations",
		MaxPoints: 75,
		Items: []Item{
			list(ItemConferences, "Conferences and seminars organised", 3, 15),
			list(ItemWorkshops, "Workshops organised", 2, 10),
			list(ItemMoUs, "Active MoUs", 3, 15),
			list(ItemIndustry, "Industry interactions", 1, 10),
			list(ItemInternational, "International collaborations", 5, 15),
			narrative(ItemOutreach, "Outreach and extension activities", 10),
		},
	}
}
