package core

// CaloriesForQuantity returns the calories of quantity grams of a product
// costing caloriesCost per 100 g. The result is not rounded.
func CaloriesForQuantity(caloriesCost, quantity int) float64 {
	return float64(caloriesCost) * float64(quantity) / 100
}
