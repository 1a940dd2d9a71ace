package queries

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/quelldb/quell"
)

// xmlParser reads tag-based resources of the form
//
//	<statements>
//	    <statement id="create_table">CREATE TABLE ...</statement>
//	</statements>
type xmlParser struct{}

type xmlStatements struct {
	XMLName    xml.Name       `xml:"statements"`
	Statements []xmlStatement `xml:"statement"`
}

type xmlStatement struct {
	ID   string `xml:"id,attr"`
	Text string `xml:",chardata"`
}

func (xmlParser) Parse(data []byte) (map[string]string, error) {
	var doc xmlStatements
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	out := make(map[string]string, len(doc.Statements))
	for _, s := range doc.Statements {
		if s.ID == "" {
			return nil, fmt.Errorf("parse xml: statement without id attribute: %w", quell.ErrInvalidInput)
		}
		out[s.ID] = strings.TrimSpace(s.Text)
	}
	return out, nil
}
