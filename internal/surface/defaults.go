package surface

// Default surface and style used for unrecognized ids.
const (
	DefaultSurfaceID = "wall"
	DefaultStyleID   = "tag"
)

// DefaultSurfaces is the game's surface table.
func DefaultSurfaces() []Surface {
	return []Surface{
		{ID: "wall", Label: "Wall", BaseRep: 8, Risk: RiskMedium, Category: CategoryVertical},
		{ID: "door", Label: "Door", BaseRep: 6, Risk: RiskLow, Category: CategoryVertical},
		{ID: "shutter", Label: "Shop shutter", BaseRep: 7, Risk: RiskLow, Category: CategoryVertical},
		{ID: "fence", Label: "Fence", BaseRep: 5, Risk: RiskLow, Category: CategoryVertical},
		{ID: "sidewalk", Label: "Sidewalk", BaseRep: 4, Risk: RiskLow, Category: CategoryHorizontal},
		{ID: "street", Label: "Street", BaseRep: 6, Risk: RiskMedium, Category: CategoryHorizontal},
		{ID: "rooftop", Label: "Rooftop", BaseRep: 15, Risk: RiskHigh, Category: CategoryStructure},
		{ID: "billboard", Label: "Billboard", BaseRep: 14, Risk: RiskHigh, Category: CategoryStructure},
		{ID: "bridge", Label: "Bridge", BaseRep: 18, Risk: RiskVeryHigh, Category: CategoryStructure},
		{ID: "train", Label: "Train", BaseRep: 20, Risk: RiskVeryHigh, Category: CategoryMoving},
		{ID: "truck", Label: "Truck", BaseRep: 12, Risk: RiskMedium, Category: CategoryVehicle},
		{ID: "van", Label: "Van", BaseRep: 10, Risk: RiskMedium, Category: CategoryVehicle},
	}
}

// DefaultStyles is the game's graffiti style table.
func DefaultStyles() []Style {
	return []Style{
		{ID: "sticker", Label: "Sticker", BaseRep: 3},
		{ID: "tag", Label: "Tag/Signature", BaseRep: 5},
		{ID: "stencil", Label: "Stencil", BaseRep: 7},
		{ID: "throwup", Label: "Throw-up", BaseRep: 10},
		{ID: "piece", Label: "Piece/Bombing", BaseRep: 15},
		{ID: "wildstyle", Label: "Wildstyle", BaseRep: 20},
	}
}

// DefaultMultipliers lists the multiplier groups. Trucks and vans sit in the
// moving group even though their Category is vehicle.
func DefaultMultipliers() []MultiplierGroup {
	return []MultiplierGroup{
		{Name: "moving", Factor: 2.0, IDs: []string{"train", "truck", "van"}},
		{Name: "heights", Factor: 1.5, IDs: []string{"rooftop", "bridge", "billboard"}},
	}
}

// Default builds the catalog from the default tables.
func Default() *Catalog {
	c, err := NewCatalog(DefaultSurfaces(), DefaultStyles(), DefaultMultipliers(), DefaultSurfaceID, DefaultStyleID)
	if err != nil {
		panic("surface: default catalog: " + err.Error())
	}
	return c
}
