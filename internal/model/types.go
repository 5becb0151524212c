package model

import "fmt"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Category is the closed set of value-axis categories. Unknown categories
// are rejected at construction time rather than accepted as free strings.
type Category string

const (
	CategoryCognitive Category = "cognitive"
	CategorySocial    Category = "social"
	CategoryTemporal  Category = "temporal"
	CategoryAesthetic Category = "aesthetic"
	CategoryEmotional Category = "emotional"
)

// Categories lists every valid category in a fixed order.
func Categories() []Category {
	return []Category{
		CategoryCognitive,
		CategorySocial,
		CategoryTemporal,
		CategoryAesthetic,
		CategoryEmotional,
	}
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryCognitive, CategorySocial, CategoryTemporal, CategoryAesthetic, CategoryEmotional:
		return true
	default:
		return false
	}
}

// ValueToken is a named, weighted dimension of a profile. Weight is in
// [0, 1]; (Name, Category) is the identity key within a profile.
type ValueToken struct {
	Name     string   `json:"name"`
	Weight   float64  `json:"weight"`
	Category Category `json:"category"`
}

// AxisKey identifies a value axis inside a profile.
type AxisKey struct {
	Name     string
	Category Category
}

func (k AxisKey) String() string {
	return fmt.Sprintf("%s/%s", k.Category, k.Name)
}

// Key returns the token's identity key.
func (t ValueToken) Key() AxisKey {
	return AxisKey{Name: t.Name, Category: t.Category}
}

// Meme is a culturally transmissible phrase. Text is the identity key.
type Meme struct {
	Text     string  `json:"text"`
	Virality float64 `json:"virality"`
}

// Practice is a named behavioral norm. Name is the identity key.
type Practice struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Myth is a symbolic narrative. Name is the identity key.
type Myth struct {
	Name      string `json:"name"`
	Narrative string `json:"narrative"`
}

// Ancestry records one contributing source of a derived profile.
type Ancestry struct {
	ProfileID string  `json:"profile_id"`
	Weight    float64 `json:"weight"`
}

// Profile is the aggregate culture protocol: value axes plus memes,
// practices and myths. Profiles are immutable value objects once
// constructed; synthesis and mutation produce new profiles. Provenance is
// empty for hand-authored profiles and sums to 1.0 (within 1e-6) for
// derived ones.
type Profile struct {
	VersionedRecord
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Values      []ValueToken `json:"values"`
	Memes       []Meme       `json:"memes,omitempty"`
	Practices   []Practice   `json:"practices,omitempty"`
	Myths       []Myth       `json:"myths,omitempty"`
	Provenance  []Ancestry   `json:"provenance,omitempty"`
}

// AxisWeight returns the weight of the axis identified by key, or 0 when
// the profile does not carry that axis.
func (p Profile) AxisWeight(key AxisKey) float64 {
	for _, token := range p.Values {
		if token.Key() == key {
			return token.Weight
		}
	}
	return 0
}

// GenerationDiagnostics summarizes one evaluated generation.
type GenerationDiagnostics struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	MinFitness  float64 `json:"min_fitness"`
}

// TopProfileRecord is a ranked final-population entry persisted per run.
type TopProfileRecord struct {
	Rank    int     `json:"rank"`
	Fitness float64 `json:"fitness"`
	Profile Profile `json:"profile"`
}

// EnvironmentSummary tracks the best observed fitness per environment.
type EnvironmentSummary struct {
	VersionedRecord
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BestFitness float64 `json:"best_fitness"`
}
