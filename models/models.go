// Package models defines the persisted records and intermediate crawl types.
package models

import "time"

// Section is a top-level catalog category. Table and column names mirror
// the legacy schema so existing consumers keep working.
type Section struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:nombre;not null"`
	URL       string    `gorm:"column:url;not null"`
	CreatedAt time.Time `gorm:"column:fecha_creacion;autoCreateTime"`
}

// TableName maps Section onto the legacy secciones table.
func (Section) TableName() string { return "secciones" }

// Item is a single catalog product found on a listing page.
type Item struct {
	ID        uint     `gorm:"column:id;primaryKey"`
	SectionID uint     `gorm:"column:id_seccion;index"`
	Section   *Section `gorm:"foreignKey:SectionID"`
	Name      string   `gorm:"column:nombre;not null"`
	URL       string   `gorm:"column:enlace;not null"`
	Stars     int      `gorm:"column:estrellas"`
	Price     float64  `gorm:"column:precio"`
}

// TableName maps Item onto the legacy libros table.
func (Item) TableName() string { return "libros" }

// ItemDetail holds the extended attributes found only on a product's
// detail page. Text attributes absent from the page stay NULL.
type ItemDetail struct {
	ID           uint    `gorm:"column:id;primaryKey"`
	ItemID       uint    `gorm:"column:id_libro;index"`
	Item         *Item   `gorm:"foreignKey:ItemID"`
	Description  *string `gorm:"column:descripcion"`
	UPC          *string `gorm:"column:UPC"`
	ProductType  *string `gorm:"column:tipoProducto"`
	PriceExclTax float64 `gorm:"column:precioSinImpu"`
	PriceInclTax float64 `gorm:"column:precioConImpu"`
	Tax          float64 `gorm:"column:impuesto"`
	Availability *string `gorm:"column:disponibilidad"`
	ReviewCount  int     `gorm:"column:numReviews"`
}

// TableName maps ItemDetail onto the legacy caracteristicasLibros table.
func (ItemDetail) TableName() string { return "caracteristicasLibros" }

// SectionLink is a (name, absolute URL) pair discovered in the category
// navigation.
type SectionLink struct {
	Name string
	URL  string
}

// ItemSummary is the subset of an item extractable from a listing page.
// Rating and price are kept raw; mapping to numeric values happens when
// the Item row is built.
type ItemSummary struct {
	Title       string
	DetailURL   string
	RatingLabel string
	RawPrice    string
}

// ItemDetailFields is the parsed content of a product detail page.
type ItemDetailFields struct {
	Description  *string
	UPC          *string
	ProductType  *string
	PriceExclTax float64
	PriceInclTax float64
	Tax          float64
	Availability *string
	ReviewCount  int
}

// SectionStats counts what one section's worker persisted.
type SectionStats struct {
	Pages          int
	Items          int
	Details        int
	DetailFailures int
}

// CrawlResult holds the overall result of a crawl.
type CrawlResult struct {
	StartTime      time.Time
	EndTime        time.Time
	Sections       int
	Pages          int
	Items          int
	Details        int
	FailedSections []string
	ErrorsByType   map[string]int
}

// Elapsed returns the total wall-clock crawl duration.
func (r *CrawlResult) Elapsed() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
