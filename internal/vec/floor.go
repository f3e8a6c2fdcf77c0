package vec

// FloorDiv делит с округлением к минус бесконечности (в отличие от оператора /).
// b должен быть положительным.
func FloorDiv(a, b int) int {
	q := a / b
	if r := a % b; r != 0 && (r < 0) != (b < 0) {
		q--
	}
	return q
}

// FloorMod возвращает остаток в диапазоне [0, b) для положительного b
func FloorMod(a, b int) int {
	return a - FloorDiv(a, b)*b
}
