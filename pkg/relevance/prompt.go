package relevance

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/rubiojr/basket/pkg/core"
)

var promptTemplate = template.Must(template.New("prompt").Parse(
	`Given the search query "{{.Query}}", analyze these product listings and return only the most relevant matches:
{{.Products}}

Return the filtered results in the same JSON format, keeping only products that closely match the search query.
Consider product names, descriptions, price(keep rupees symbol intact) and other attributes to determine relevance.
Reply with a JSON object of the form {"matches": [...]} and nothing else.`))

// RenderPrompt builds the instruction sent to the model for query and
// records.
func RenderPrompt(query string, records []core.ProductRecord) (string, error) {
	products, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = promptTemplate.Execute(&buf, struct {
		Query    string
		Products string
	}{query, string(products)})
	return buf.String(), err
}
