package domain

// Product позиция каталога магазина. Каталог статический, загружается при
// старте и не меняется в рантайме.
type Product struct {
	ID          string `json:"id"`
	Price       int64  `json:"price"`    // цена в звёздах (XTR)
	Quantity    int64  `json:"quantity"` // количество единиц товара в пакете
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate проверяет инварианты каталога: id непустой, цена и количество строго положительные
func (p *Product) Validate() error {
	if p.ID == "" {
		return ErrMissingParameter
	}
	if p.Price <= 0 || p.Quantity <= 0 {
		return ErrInvalidProduct
	}
	return nil
}
