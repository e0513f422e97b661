// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Entity is one concept recognized by the image classifier.
type Entity struct {
	// Description is the human-readable label (e.g. "Eiffel Tower").
	Description string `json:"description" yaml:"description" binding:"required"`

	// Score is the classifier confidence; higher is more confident.
	Score float64 `json:"score" yaml:"score"`

	// EntityID is the classifier's knowledge-graph id (e.g. "/m/02j81").
	EntityID string `json:"entityId" yaml:"entity_id"`
}

// ClassificationResult is the classifier output for one photograph.
type ClassificationResult struct {
	Entities []Entity `json:"entities" yaml:"entities" binding:"dive"`
	Labels   []Entity `json:"labels" yaml:"labels" binding:"dive"`
}

// IsEmpty reports whether the result carries no entities and no labels.
func (c ClassificationResult) IsEmpty() bool {
	return len(c.Entities) == 0 && len(c.Labels) == 0
}

// ExpertiseLevel describes the audience results are tailored for.
type ExpertiseLevel string

const (
	ExpertiseChild        ExpertiseLevel = "child"
	ExpertiseBeginner     ExpertiseLevel = "beginner"
	ExpertiseIntermediate ExpertiseLevel = "intermediate"
	ExpertiseExpert       ExpertiseLevel = "expert"
)

// IsChild reports whether the audience must get child-safe results.
func (e ExpertiseLevel) IsChild() bool { return e == ExpertiseChild }

// UserProfile describes who the results are for.
type UserProfile struct {
	Language       string         `json:"language" yaml:"language" binding:"required"`
	ExpertiseLevel ExpertiseLevel `json:"expertiseLevel" yaml:"expertise_level" binding:"omitempty,oneof=child beginner intermediate expert"`
	Tastes         []string       `json:"tastes,omitempty" yaml:"tastes,omitempty"`
}

// Property names one knowledge-graph claim kept on a MetaEntity.
type Property string

const (
	PropInstanceOf         Property = "instanceOf"
	PropSubclassOf         Property = "subclassOf"
	PropCreator            Property = "creator"
	PropArchitect          Property = "architect"
	PropArchitecturalStyle Property = "architecturalStyle"
	PropGenre              Property = "genre"
	PropMovement           Property = "movement"
	PropLocation           Property = "location"
	PropCoordinates        Property = "coordinates"
	PropCountry            Property = "country"
)

// PropertyBinding maps a Wikidata claim id (e.g. "P170") to a Property.
type PropertyBinding struct {
	Name    Property `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	ClaimID string   `json:"claim_id" yaml:"claim_id" mapstructure:"claim_id" validate:"required,startswith=P"`
}

// DefaultPropertyTable is the claim table used when configuration does not
// override it.
var DefaultPropertyTable = []PropertyBinding{
	{Name: PropInstanceOf, ClaimID: "P31"},
	{Name: PropSubclassOf, ClaimID: "P279"},
	{Name: PropCreator, ClaimID: "P170"},
	{Name: PropArchitect, ClaimID: "P84"},
	{Name: PropArchitecturalStyle, ClaimID: "P149"},
	{Name: PropGenre, ClaimID: "P136"},
	{Name: PropMovement, ClaimID: "P135"},
	{Name: PropLocation, ClaimID: "P276"},
	{Name: PropCoordinates, ClaimID: "P625"},
	{Name: PropCountry, ClaimID: "P17"},
}

// DefaultIdentityProperties are the properties whose presence marks a known instance.
var DefaultIdentityProperties = []Property{PropCreator, PropArchitect, PropLocation}

// Claims holds claim-value ids per property.
type Claims map[Property][]string

// Has reports whether p has at least one value.
func (c Claims) Has(p Property) bool { return len(c[p]) > 0 }

// MetaEntity is an Entity enriched with knowledge-graph claims.
type MetaEntity struct {
	Entity

	// WikidataID is the resolved item id (e.g. "Q243"); empty when resolution failed.
	WikidataID string `json:"wikidataId" yaml:"wikidata_id"`

	// Claims holds the flattened claims of the item.
	Claims Claims `json:"claims" yaml:"claims"`

	// WikipediaPageTitle is the localized encyclopedia title, if any.
	WikipediaPageTitle string `json:"wikipediaPageTitle" yaml:"wikipedia_page_title"`
}

// Resolved reports whether the entity was matched to a knowledge-graph item.
func (m MetaEntity) Resolved() bool { return m.WikidataID != "" }

// KnownInstance is a MetaEntity identified as a specific artwork or monument.
type KnownInstance struct {
	MetaEntity

	// Identity maps each populated identity property to display names.
	Identity map[Property][]string `json:"identity" yaml:"identity"`
}

// Title returns the best search title for the instance.
func (k KnownInstance) Title() string {
	if k.WikipediaPageTitle != "" {
		return k.WikipediaPageTitle
	}
	return k.Description
}
