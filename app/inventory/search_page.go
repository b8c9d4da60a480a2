package inventory

import (
	"bytes"
	"fmt"
	"html/template"

	"inventory/domain"
)

var searchPage = template.Must(template.New("search").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Inventory item {{.ID}}</title>
</head>
<body>
<h1>Inventory item {{.ID}}</h1>
<dl>
<dt>ID</dt><dd>{{.ID}}</dd>
<dt>Name</dt><dd>{{.Name}}</dd>
<dt>Description</dt><dd>{{.Description}}</dd>
</dl>
{{- if .PhotoURL}}
<img src="{{.PhotoURL}}" alt="Photo of {{.Name}}">
{{- end}}
</body>
</html>
`))

type searchPageData struct {
	ID          int64
	Name        string
	Description string
	PhotoURL    string
}

func renderSearchPage(item domain.InventoryItem, includePhoto bool) (string, error) {
	data := searchPageData{
		ID:          item.ID,
		Name:        item.InventoryName,
		Description: item.Description,
	}
	if includePhoto && item.HasPhoto() {
		data.PhotoURL = domain.PhotoURL(item.ID)
	}

	var buf bytes.Buffer
	if err := searchPage.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render search page: %w", err)
	}
	return buf.String(), nil
}
