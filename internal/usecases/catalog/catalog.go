package catalog

import (
	"fmt"

	"github.com/admin/tg-bots/store-bot/internal/domain"
)

// Catalog статический каталог продуктов магазина. Собирается один раз при
// старте, в рантайме не мутирует, поэтому безопасен для конкурентного чтения.
type Catalog struct {
	products map[string]domain.Product
}

// New собирает каталог из списка продуктов.
// Инварианты: id уникален, цена и количество строго положительные.
func New(products []domain.Product) (*Catalog, error) {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("product %q: %w", p.ID, err)
		}
		if _, exists := byID[p.ID]; exists {
			return nil, fmt.Errorf("duplicate product id: %s", p.ID)
		}
		byID[p.ID] = p
	}
	return &Catalog{products: byID}, nil
}

// Default каталог пакетов звёзд витрины
func Default() *Catalog {
	c, err := New([]domain.Product{
		{
			ID:          "package_mini",
			Price:       25,
			Quantity:    250,
			Title:       "Мини-пакет",
			Description: "250 монет для мини-приложения",
		},
		{
			ID:          "package_standard",
			Price:       100,
			Quantity:    1100,
			Title:       "Стандартный пакет",
			Description: "1100 монет для мини-приложения",
		},
		{
			ID:          "package_max",
			Price:       500,
			Quantity:    6000,
			Title:       "Максимальный пакет",
			Description: "6000 монет для мини-приложения",
		},
	})
	if err != nil {
		// дефолтный каталог задаётся в коде — ошибка тут означает опечатку в нём
		panic(err)
	}
	return c
}

// Get возвращает продукт по id или ErrUnknownProduct
func (c *Catalog) Get(id string) (*domain.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProduct, id)
	}
	return &p, nil
}

// All возвращает все продукты каталога
func (c *Catalog) All() []domain.Product {
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	return out
}
