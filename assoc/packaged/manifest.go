package packaged

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/assockit/pkg/types"
)

const (
	categoryFileType = "windows.fileTypeAssociation"
	categoryProtocol = "windows.protocol"
	appListHidden    = "none"
)

// Element names are matched by local name, so the uap, uap2, uap3 and
// desktop namespace prefixes all land in the same fields.
type manifest struct {
	Identity struct {
		Name string `xml:"Name,attr"`
	} `xml:"Identity"`
	Applications []manifestApp `xml:"Applications>Application"`
}

type manifestApp struct {
	ID             string `xml:"Id,attr"`
	VisualElements struct {
		AppListEntry string `xml:"AppListEntry,attr"`
	} `xml:"VisualElements"`
	Extensions []manifestExt `xml:"Extensions>Extension"`
}

type manifestExt struct {
	Category string `xml:"Category,attr"`
	FileType *struct {
		Types []string `xml:"SupportedFileTypes>FileType"`
		Verbs []struct {
			ID string `xml:"Id,attr"`
		} `xml:"SupportedVerbs>Verb"`
	} `xml:"FileTypeAssociation"`
	Protocol *struct {
		Name string `xml:"Name,attr"`
	} `xml:"Protocol"`
}

// ParseManifest reads an AppxManifest.xml and returns one Package per
// declared application.
func ParseManifest(fullName string, data []byte) ([]Package, error) {
	var m manifest
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		return nil, &types.Error{Kind: types.ErrKindFormat, Msg: "packaged: bad manifest for " + fullName, Err: err}
	}
	if len(m.Applications) == 0 {
		return nil, errors.Wrapf(types.ErrNotFound, "packaged: %s declares no applications", fullName)
	}

	family := FamilyName(fullName)
	out := make([]Package, 0, len(m.Applications))
	for _, a := range m.Applications {
		if a.ID == "" {
			continue
		}
		p := Package{
			FullName:      fullName,
			Name:          m.Identity.Name,
			AUMID:         AUMID(family, a.ID),
			ShowInAppList: !strings.EqualFold(a.VisualElements.AppListEntry, appListHidden),
		}
		for _, ext := range a.Extensions {
			switch {
			case ext.Category == categoryFileType && ext.FileType != nil:
				if g, ok := fileTypeGroup(ext); ok {
					p.ExtGroups = append(p.ExtGroups, g)
				}
			case ext.Category == categoryProtocol && ext.Protocol != nil:
				if name := strings.TrimSpace(ext.Protocol.Name); name != "" {
					p.Protocols = append(p.Protocols, name)
				}
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func fileTypeGroup(ext manifestExt) (ExtGroup, bool) {
	var g ExtGroup
	for _, t := range ext.FileType.Types {
		t = strings.TrimSpace(t)
		if len(t) > 1 && t[0] == '.' {
			g.Extensions = append(g.Extensions, t)
		}
	}
	if len(g.Extensions) == 0 {
		return g, false
	}
	for _, v := range ext.FileType.Verbs {
		if v.ID != "" {
			g.Verbs = append(g.Verbs, v.ID)
		}
	}
	if len(g.Verbs) == 0 {
		g.Verbs = []string{DefaultVerb}
	}
	return g, true
}
