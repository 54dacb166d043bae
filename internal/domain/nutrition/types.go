package nutrition

const (
	DefaultFoodItem = "Unknown food"
	DefaultAmount   = "N/A"
	DefaultDetails  = "No information available"
)

// Reply keys looked up by exact, case-sensitive match.
const (
	KeyFoodName = "food_name"
	KeyCalories = "calories"
	KeyProtein  = "protein"
	KeyCarbs    = "carbs"
	KeyFat      = "fat"
	KeyBenefits = "benefits"
)

// Keys lists the recognized reply keys in prompt order.
var Keys = []string{KeyFoodName, KeyCalories, KeyProtein, KeyCarbs, KeyFat, KeyBenefits}

type NutritionalInfo struct {
	Calories string `json:"calories"`
	Protein  string `json:"protein"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
	Details  string `json:"details"`
}

// Result is one analyzed food item.
type Result struct {
	FoodItem        string          `json:"food_item"`
	NutritionalInfo NutritionalInfo `json:"nutritional_info"`
}

// Envelope is the /analyze-food success body.
type Envelope struct {
	Results []Result `json:"results"`
}

// DefaultResult is the record produced when the reply carries none of the keys.
func DefaultResult() Result {
	return Result{
		FoodItem: DefaultFoodItem,
		NutritionalInfo: NutritionalInfo{
			Calories: DefaultAmount,
			Protein:  DefaultAmount,
			Carbs:    DefaultAmount,
			Fat:      DefaultAmount,
			Details:  DefaultDetails,
		},
	}
}

// FromFields maps parsed key/value pairs onto a Result. Keys that are absent
// keep their defaults; keys present with an empty value stay empty.
func FromFields(fields map[string]string) Result {
	lookup := func(key, fallback string) string {
		if v, ok := fields[key]; ok {
			return v
		}
		return fallback
	}
	return Result{
		FoodItem: lookup(KeyFoodName, DefaultFoodItem),
		NutritionalInfo: NutritionalInfo{
			Calories: lookup(KeyCalories, DefaultAmount),
			Protein:  lookup(KeyProtein, DefaultAmount),
			Carbs:    lookup(KeyCarbs, DefaultAmount),
			Fat:      lookup(KeyFat, DefaultAmount),
			Details:  lookup(KeyBenefits, DefaultDetails),
		},
	}
}
