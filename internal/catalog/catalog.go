package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Review struct {
	User    string  `json:"user"`
	Comment string  `json:"comment"`
	Rating  float64 `json:"rating"`
}

// Product is one immutable catalog entry, loaded once at startup.
type Product struct {
	ProductID      string   `json:"product_id"`
	ProductName    string   `json:"product_name"`
	Category       string   `json:"category"`
	SubCategory    string   `json:"sub_category"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	Currency       string   `json:"currency"`
	Discount       float64  `json:"discount"`
	StockStatus    string   `json:"stock_status"`
	Unit           string   `json:"unit"`
	Brand          string   `json:"brand"`
	Origin         string   `json:"origin"`
	Tags           []string `json:"tags"`
	Rating         float64  `json:"rating"`
	Reviews        []Review `json:"reviews"`
	RecommendedFor []string `json:"recommended_for"`
}

type Catalog struct {
	products []Product
	byID     map[string]int
}

// The catalog file is a wrapper array whose first element carries the records.
type catalogFile struct {
	Content []Product `json:"content"`
}

// Load reads the catalog JSON from path. Any error here is fatal for the
// process: the assistant must not serve traffic without its catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var wrapper []catalogFile
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if len(wrapper) == 0 || len(wrapper[0].Content) == 0 {
		return nil, fmt.Errorf("catalog file %s contains no products", path)
	}

	return New(wrapper[0].Content), nil
}

func New(products []Product) *Catalog {
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[strings.ToUpper(p.ProductID)] = i
	}
	return &Catalog{products: products, byID: byID}
}

func (c *Catalog) Products() []Product {
	return c.products
}

func (c *Catalog) Size() int {
	return len(c.products)
}

// Get looks up a product by its identifier, case-insensitively.
func (c *Catalog) Get(id string) (Product, bool) {
	i, ok := c.byID[strings.ToUpper(id)]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// CountMatching counts products whose category, sub-category or rendered
// document text contains keyword (case-insensitive substring).
func (c *Catalog) CountMatching(keyword string) int {
	kw := strings.ToLower(keyword)
	n := 0
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Category), kw) ||
			strings.Contains(strings.ToLower(p.SubCategory), kw) ||
			strings.Contains(strings.ToLower(p.Document()), kw) {
			n++
		}
	}
	return n
}

// Document renders the product as the text blob that gets embedded into the
// vector index. Reviews are flattened to one line each, usernames included.
func (p Product) Document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product ID: %s\n", p.ProductID)
	fmt.Fprintf(&b, "Product Name: %s\n", p.ProductName)
	fmt.Fprintf(&b, "Category: %s\n", p.Category)
	fmt.Fprintf(&b, "Sub Category: %s\n", p.SubCategory)
	fmt.Fprintf(&b, "Description: %s\n", p.Description)
	fmt.Fprintf(&b, "Price: %s %s\n", num(p.Price), p.Currency)
	fmt.Fprintf(&b, "Discount: %s%%\n", num(p.Discount))
	fmt.Fprintf(&b, "Stock Status: %s\n", p.StockStatus)
	fmt.Fprintf(&b, "Unit: %s\n", p.Unit)
	fmt.Fprintf(&b, "Brand: %s\n", p.Brand)
	fmt.Fprintf(&b, "Origin: %s\n", p.Origin)
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(p.Tags, ", "))
	fmt.Fprintf(&b, "Rating: %s\n", num(p.Rating))
	b.WriteString("Reviews:\n")
	for _, r := range p.Reviews {
		fmt.Fprintf(&b, "  - User: %s, Comment: %s, Rating: %s\n", r.User, r.Comment, num(r.Rating))
	}
	fmt.Fprintf(&b, "Recommended For: %s", strings.Join(p.RecommendedFor, ", "))
	return b.String()
}

// ContextBlock renders all fields as a flat block for the prompt context of an
// exact product lookup. Review usernames are stripped so the model never sees
// them.
func (p Product) ContextBlock() string {
	reviews := make([]string, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		reviews = append(reviews, fmt.Sprintf("Rating: %s, Comment: %s", num(r.Rating), r.Comment))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Product ID: %s\n", p.ProductID)
	fmt.Fprintf(&b, "Product Name: %s\n", p.ProductName)
	fmt.Fprintf(&b, "Category: %s\n", p.Category)
	fmt.Fprintf(&b, "Sub Category: %s\n", p.SubCategory)
	fmt.Fprintf(&b, "Description: %s\n", p.Description)
	fmt.Fprintf(&b, "Price: %s %s\n", num(p.Price), p.Currency)
	fmt.Fprintf(&b, "Discount: %s%%\n", num(p.Discount))
	fmt.Fprintf(&b, "Stock Status: %s\n", p.StockStatus)
	fmt.Fprintf(&b, "Unit: %s\n", p.Unit)
	fmt.Fprintf(&b, "Brand: %s\n", p.Brand)
	fmt.Fprintf(&b, "Origin: %s\n", p.Origin)
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(p.Tags, ", "))
	fmt.Fprintf(&b, "Rating: %s\n", num(p.Rating))
	fmt.Fprintf(&b, "Reviews: %s\n", strings.Join(reviews, "; "))
	fmt.Fprintf(&b, "Recommended For: %s", strings.Join(p.RecommendedFor, ", "))
	return b.String()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
