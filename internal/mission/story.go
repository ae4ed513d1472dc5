package mission

// Story location and photo subjects referenced by the default catalog.
const (
	LocationTrainYard   = "train-yard"
	LocationHallOfFame  = "hall-of-fame"
	SubjectBlackoutSite = "blackout-site"
)

// DefaultDefinitions is the story mission line.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			ID:          "first-drop",
			Title:       "First Drop",
			Description: "Put your name somewhere. Anywhere.",
			Objectives: []Objective{
				{ID: "drop", Description: "Place a marker", Type: ActionPlaceMarker, Required: 1},
			},
			Reward: Reward{Rep: 10},
		},
		{
			ID:          "getting-up",
			Title:       "Getting Up",
			Description: "A writer nobody sees is a toy. Get your name around.",
			Objectives: []Objective{
				{ID: "drops", Description: "Place five markers", Type: ActionPlaceMarker, Required: 5},
			},
			Reward:   Reward{Rep: 25, Unlocks: []string{"style:throwup"}},
			Requires: []string{"first-drop"},
		},
		{
			ID:          "flick",
			Title:       "Flick It",
			Description: "If there's no photo, it never ran.",
			Objectives: []Objective{
				{ID: "photos", Description: "Photograph three pieces", Type: ActionTakePhoto, Required: 3},
			},
			Reward:   Reward{Rep: 15},
			Requires: []string{"first-drop"},
		},
		{
			ID:          "the-yard",
			Title:       "The Yard",
			Description: "Every legend has a train.",
			Objectives: []Objective{
				{ID: "reach", Description: "Reach the train yard", Type: ActionReachLocation, Required: 1, Target: LocationTrainYard},
				{ID: "hit", Description: "Hit a train", Type: ActionPlaceMarker, Required: 1, Target: "train"},
			},
			Reward:   Reward{Rep: 50, Unlocks: []string{"style:wildstyle"}},
			Requires: []string{"getting-up"},
		},
		{
			ID:          "crew-up",
			Title:       "Crew Up",
			Description: "Paint with others twice.",
			Objectives: []Objective{
				{ID: "collabs", Description: "Collaborate on two drops", Type: ActionCollaborate, Required: 2},
			},
			Reward:   Reward{Rep: 30},
			Requires: []string{"getting-up"},
		},
		{
			ID:          "blackout",
			Title:       "Blackout",
			Description: "Pieces are vanishing overnight. Find out who is buffing the city.",
			Objectives: []Objective{
				{ID: "evidence", Description: "Photograph a blackout site", Type: ActionTakePhoto, Required: 1, Target: SubjectBlackoutSite},
				{ID: "meet", Description: "Meet your contact at the hall of fame", Type: ActionReachLocation, Required: 1, Target: LocationHallOfFame},
			},
			Reward:   Reward{Rep: 100},
			Requires: []string{"the-yard", "crew-up"},
		},
	}
}

// Default builds the story catalog.
func Default() *Catalog {
	c, err := NewCatalog(DefaultDefinitions()...)
	if err != nil {
		panic("mission: default catalog: " + err.Error())
	}
	return c
}
