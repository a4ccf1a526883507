package domain

// Book is the catalogue entry reviews and suggestions refer to.
type Book struct {
	ID           int64   `json:"id" bson:"_id"`
	Title        string  `json:"title" bson:"title"`
	Author       string  `json:"author" bson:"author"`
	Price        float64 `json:"price" bson:"price"`
	Stock        int     `json:"stock" bson:"stock"`
	Description  string  `json:"description,omitempty" bson:"description,omitempty"`
	ImageURL     string  `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	Barcode      string  `json:"barcode,omitempty" bson:"barcode,omitempty"`
	CategoryName string  `json:"categoryName,omitempty" bson:"category_name,omitempty"`
}
