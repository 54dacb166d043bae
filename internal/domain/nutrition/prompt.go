package nutrition

// Instruction is sent verbatim with every image. The reply parser depends on
// the "key: value" layout it requests.
const Instruction = `Analyze this food image and provide:
1. Food name
2. Calories (kcal)
3. Protein (g)
4. Carbs (g)
5. Fat (g)
6. Brief health benefits

Return in this exact format:
food_name: [name]
calories: [number] kcal
protein: [number] g
carbs: [number] g
fat: [number] g
benefits: [text]`

// JSONInstruction asks for the same six fields as a flat JSON object.
const JSONInstruction = `Analyze this food image and provide:
1. Food name
2. Calories (kcal)
3. Protein (g)
4. Carbs (g)
5. Fat (g)
6. Brief health benefits

Return only a JSON object with exactly these string fields:
{"food_name": "[name]", "calories": "[number] kcal", "protein": "[number] g", "carbs": "[number] g", "fat": "[number] g", "benefits": "[text]"}`

const (
	FormatLines = "lines"
	FormatJSON  = "json"
)

// InstructionFor returns the instruction matching a reply format.
func InstructionFor(format string) string {
	if format == FormatJSON {
		return JSONInstruction
	}
	return Instruction
}
