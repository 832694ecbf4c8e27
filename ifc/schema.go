package ifc

// Numeric type codes for the IFC entity types this package cares about.
// The values follow the web-ifc schema so that engines built on it can be
// plugged in directly; they are otherwise opaque.
const (
	IfcProject        uint32 = 103090709
	IfcSite           uint32 = 4097777520
	IfcBuilding       uint32 = 4031249490
	IfcBuildingStorey uint32 = 3124254112
	IfcSpace          uint32 = 3856911033

	IfcRelContainedInSpatialStructure uint32 = 3242617779
	IfcRelAssociatesMaterial          uint32 = 2655215786

	IfcMaterial                         uint32 = 1838606355
	IfcMaterialDefinitionRepresentation uint32 = 2022407955
	IfcStyledItem                       uint32 = 3958052878
	IfcStyledRepresentation             uint32 = 3049322572
	IfcPresentationStyleAssignment      uint32 = 2417041796
	IfcSurfaceStyle                     uint32 = 1300840506
	IfcSurfaceStyleRendering            uint32 = 1878645084
	IfcSurfaceStyleShading              uint32 = 846575682
	IfcColourRgb                        uint32 = 776857604

	IfcWall                 uint32 = 2391406946
	IfcWallStandardCase     uint32 = 3512223829
	IfcSlab                 uint32 = 1529196076
	IfcRoof                 uint32 = 2016517767
	IfcBeam                 uint32 = 753842376
	IfcColumn               uint32 = 843113511
	IfcDoor                 uint32 = 395920057
	IfcWindow               uint32 = 3304561284
	IfcStair                uint32 = 331165859
	IfcStairFlight          uint32 = 4252922144
	IfcRailing              uint32 = 2262370178
	IfcPlate                uint32 = 3171933400
	IfcMember               uint32 = 1073191201
	IfcCovering             uint32 = 1973544240
	IfcCurtainWall          uint32 = 3495092785
	IfcFooting              uint32 = 900683007
	IfcPile                 uint32 = 1687234759
	IfcFurnishingElement    uint32 = 263784265
	IfcBuildingElementProxy uint32 = 1095909175
	IfcFlowTerminal         uint32 = 2223149337
	IfcDistributionElement  uint32 = 1945004755
	IfcAnnotation           uint32 = 1674181508
	IfcOpeningElement       uint32 = 3588315303
	IfcOpeningStandardCase  uint32 = 3079942009
)

// SpatialLevel classifies the nesting level of a spatial container type.
type SpatialLevel int

const (
	LevelNone SpatialLevel = iota
	LevelProject
	LevelSite
	LevelBuilding
	LevelStorey
	LevelSpace
)

// typeInfo is the per-type capability descriptor: display name, which
// argument carries the entity's name, and the spatial nesting level.
// Keeping this in one table replaces type-code switches scattered through
// the importer.
type typeInfo struct {
	name     string
	nameArg  int
	level    SpatialLevel
	fallback string
}

var typeTable = map[uint32]typeInfo{
	IfcProject:        {"IFCPROJECT", 2, LevelProject, "IFC_Project"},
	IfcSite:           {"IFCSITE", 2, LevelSite, "IFC_Site"},
	IfcBuilding:       {"IFCBUILDING", 2, LevelBuilding, "IFC_Building"},
	IfcBuildingStorey: {"IFCBUILDINGSTOREY", 2, LevelStorey, "IFC_BuildingStorey"},
	// Spaces carry the descriptive room name in LongName (argument 7).
	IfcSpace: {"IFCSPACE", 7, LevelSpace, "IFC_Space"},

	IfcRelContainedInSpatialStructure: {name: "IFCRELCONTAINEDINSPATIALSTRUCTURE", nameArg: 2},
	IfcRelAssociatesMaterial:          {name: "IFCRELASSOCIATESMATERIAL", nameArg: 2},

	IfcMaterial:                         {name: "IFCMATERIAL", nameArg: 0},
	IfcMaterialDefinitionRepresentation: {name: "IFCMATERIALDEFINITIONREPRESENTATION", nameArg: 0},
	IfcStyledItem:                       {name: "IFCSTYLEDITEM", nameArg: 2},
	IfcStyledRepresentation:             {name: "IFCSTYLEDREPRESENTATION", nameArg: 1},
	IfcPresentationStyleAssignment:      {name: "IFCPRESENTATIONSTYLEASSIGNMENT", nameArg: -1},
	IfcSurfaceStyle:                     {name: "IFCSURFACESTYLE", nameArg: 0},
	IfcSurfaceStyleRendering:            {name: "IFCSURFACESTYLERENDERING", nameArg: -1},
	IfcSurfaceStyleShading:              {name: "IFCSURFACESTYLESHADING", nameArg: -1},
	IfcColourRgb:                        {name: "IFCCOLOURRGB", nameArg: 0},

	IfcWall:                 {name: "IFCWALL", nameArg: 2},
	IfcWallStandardCase:     {name: "IFCWALLSTANDARDCASE", nameArg: 2},
	IfcSlab:                 {name: "IFCSLAB", nameArg: 2},
	IfcRoof:                 {name: "IFCROOF", nameArg: 2},
	IfcBeam:                 {name: "IFCBEAM", nameArg: 2},
	IfcColumn:               {name: "IFCCOLUMN", nameArg: 2},
	IfcDoor:                 {name: "IFCDOOR", nameArg: 2},
	IfcWindow:               {name: "IFCWINDOW", nameArg: 2},
	IfcStair:                {name: "IFCSTAIR", nameArg: 2},
	IfcStairFlight:          {name: "IFCSTAIRFLIGHT", nameArg: 2},
	IfcRailing:              {name: "IFCRAILING", nameArg: 2},
	IfcPlate:                {name: "IFCPLATE", nameArg: 2},
	IfcMember:               {name: "IFCMEMBER", nameArg: 2},
	IfcCovering:             {name: "IFCCOVERING", nameArg: 2},
	IfcCurtainWall:          {name: "IFCCURTAINWALL", nameArg: 2},
	IfcFooting:              {name: "IFCFOOTING", nameArg: 2},
	IfcPile:                 {name: "IFCPILE", nameArg: 2},
	IfcFurnishingElement:    {name: "IFCFURNISHINGELEMENT", nameArg: 2},
	IfcBuildingElementProxy: {name: "IFCBUILDINGELEMENTPROXY", nameArg: 2},
	IfcFlowTerminal:         {name: "IFCFLOWTERMINAL", nameArg: 2},
	IfcDistributionElement:  {name: "IFCDISTRIBUTIONELEMENT", nameArg: 2},
	IfcAnnotation:           {name: "IFCANNOTATION", nameArg: 2},
	IfcOpeningElement:       {name: "IFCOPENINGELEMENT", nameArg: 2},
	IfcOpeningStandardCase:  {name: "IFCOPENINGSTANDARDCASE", nameArg: 2},
}

// elementTypes lists the entity types considered for geometry extraction,
// in extraction order.
var elementTypes = []uint32{
	IfcWall, IfcWallStandardCase, IfcSlab, IfcRoof, IfcBeam, IfcColumn,
	IfcDoor, IfcWindow, IfcStair, IfcStairFlight, IfcRailing, IfcPlate,
	IfcMember, IfcCovering, IfcCurtainWall, IfcFooting, IfcPile,
	IfcFurnishingElement, IfcBuildingElementProxy, IfcFlowTerminal,
	IfcDistributionElement, IfcSite, IfcSpace, IfcAnnotation,
	IfcOpeningElement, IfcOpeningStandardCase,
}

var typeCodeByName = func() map[string]uint32 {
	m := make(map[string]uint32, len(typeTable))
	for code, info := range typeTable {
		m[info.name] = code
	}
	return m
}()

// TypeName returns the schema name for a type code, "" if unknown.
func TypeName(code uint32) string {
	return typeTable[code].name
}

// TypeCode returns the numeric code for a schema type name.
func TypeCode(name string) (uint32, bool) {
	c, ok := typeCodeByName[name]
	return c, ok
}

func infoFor(code uint32) (typeInfo, bool) {
	info, ok := typeTable[code]
	return info, ok
}
