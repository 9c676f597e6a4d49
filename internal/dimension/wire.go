package dimension

import (
	"encoding/xml"

	"github.com/nao1215/taxocrawl/internal/model"
)

type xmlDocument struct {
	XMLName xml.Name  `xml:"external_dimensions"`
	Nodes   []xmlNode `xml:"node"`
}

type xmlNode struct {
	ID         string        `xml:"id,attr"`
	Name       string        `xml:"name,attr"`
	Parent     string        `xml:"parent,attr,omitempty"`
	Classify   string        `xml:"classify,attr,omitempty"`
	Search     string        `xml:"search,attr,omitempty"`
	Synonym    *xmlSynonym   `xml:"synonym,omitempty"`
	Properties []xmlProperty `xml:"property"`
}

type xmlSynonym struct {
	Search   string `xml:"search,attr"`
	Name     string `xml:"name,attr"`
	Classify string `xml:"classify,attr"`
}

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// newXMLNode maps a flattened visit to its node element. Taxonomy nodes are
// searchable but not classifiable; their synonym (the service uid) is the
// reverse.
func newXMLNode(n model.DimensionNode) xmlNode {
	return xmlNode{
		ID:       n.ID,
		Name:     n.Name,
		Parent:   n.Parent,
		Classify: "false",
		Search:   "true",
		Synonym: &xmlSynonym{
			Search:   "false",
			Name:     n.UID,
			Classify: "true",
		},
		Properties: []xmlProperty{
			{Name: PropertyUniquePath, Value: n.UniquePathString()},
			{Name: PropertySID, Value: n.UID},
		},
	}
}
