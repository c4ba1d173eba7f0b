package factual

// Factual place category ids.
// See http://developer.factual.com/working-with-categories/
const (
	// Community and Government > Education > Colleges and Universities
	CategoryCollegesAndUniversities = 29

	// Businesses and Services > Metals
	CategoryMetals = 181
	// Businesses and Services > Petroleum
	CategoryPetroleum = 183
	// Businesses and Services > Plastics
	CategoryPlastics = 184
	// Businesses and Services > Rubber
	CategoryRubber = 186
	// Businesses and Services > Textiles
	CategoryTextiles = 190
	// Businesses and Services > Welding
	CategoryWelding = 192
	// Businesses and Services > Automation and Control Systems
	CategoryAutomationAndControlSystems = 207
	// Businesses and Services > Chemicals and Gasses
	CategoryChemicalsAndGasses = 208
	// Businesses and Services > Engineering
	CategoryEngineering = 213
	// Businesses and Services > Leather
	CategoryLeather = 268
	// Businesses and Services > Manufacturing
	CategoryManufacturing = 275
	// Businesses and Services > Renewable Energy
	CategoryRenewableEnergy = 301
	// Businesses and Services > Construction
	CategoryConstruction = 447
	// Businesses and Services > Technology
	CategoryTechnology = 460

	// Businesses and Services > Financial > Banking and Finance > ATMs
	CategoryATMs = 218
	// Businesses and Services > Financial > Banking and Finance
	CategoryBankingAndFinance = 221
)

// IndustryCategories is the set counted as industry.
var IndustryCategories = []int{
	CategoryMetals,
	CategoryPetroleum,
	CategoryPlastics,
	CategoryRubber,
	CategoryTextiles,
	CategoryWelding,
	CategoryAutomationAndControlSystems,
	CategoryChemicalsAndGasses,
	CategoryEngineering,
	CategoryLeather,
	CategoryManufacturing,
	CategoryRenewableEnergy,
	CategoryConstruction,
	CategoryTechnology,
}
