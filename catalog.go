package thredds

import (
	"fmt"
	"regexp"
)

const (
	xlinkNamespace = "http://www.w3.org/1999/xlink"

	serviceOpendap = "OPENDAP"
	serviceNcML    = "NCML"

	sizeUnknown = "size unknown"
)

// CatalogRef points to a child catalog.
type CatalogRef struct {
	Href  string
	Title string
	// ID falls back to Title when the element has no ID attribute.
	ID string
}

// DatasetNode is an entry in a catalog's dataset tree.
type DatasetNode struct {
	// ID falls back to Name when the element has no ID attribute.
	ID      string
	Name    string
	URLPath string
	Size    string

	// Parent is the index of the parent node in CatalogInfo.Datasets, or -1.
	Parent   int
	Children []*DatasetNode
}

// Equal compares nodes by ID.
func (n *DatasetNode) Equal(other *DatasetNode) bool {
	return other != nil && n.ID == other.ID
}

func (n *DatasetNode) String() string {
	return fmt.Sprintf("%s %s (%d children)", n.ID, n.Size, len(n.Children))
}

// CatalogInfo is the parsed content of one catalog document.
type CatalogInfo struct {
	Name string

	// Datasets holds the root dataset followed by every nested dataset in
	// document order.
	Datasets    []*DatasetNode
	CatalogRefs []CatalogRef

	// OpendapBaseURL and NcMLBaseURL are empty when the catalog does not
	// declare the service.
	OpendapBaseURL string
	NcMLBaseURL    string
}

// HasNcML reports whether the catalog declares a metadata service.
func (c *CatalogInfo) HasNcML() bool { return c.NcMLBaseURL != "" }

// ParentOf returns the parent of n within this catalog.
func (c *CatalogInfo) ParentOf(n *DatasetNode) (*DatasetNode, bool) {
	if n.Parent < 0 || n.Parent >= len(c.Datasets) {
		return nil, false
	}
	return c.Datasets[n.Parent], true
}

// FilterDatasets returns the datasets whose name matches pattern.
func (c *CatalogInfo) FilterDatasets(pattern string) ([]*DatasetNode, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	var out []*DatasetNode
	for _, ds := range c.Datasets {
		if re.MatchString(ds.Name) {
			out = append(out, ds)
		}
	}
	return out, nil
}

func (c *CatalogInfo) String() string {
	return fmt.Sprintf("%s (%d catalog refs and %d datasets)", c.Name, len(c.CatalogRefs), len(c.Datasets))
}

// ParseCatalog decodes catalog document bytes.
func ParseCatalog(data []byte) (*CatalogInfo, error) {
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	return CatalogFromXML(root)
}

// CatalogFromXML builds a CatalogInfo from an already decoded catalog document.
func CatalogFromXML(root *Element) (*CatalogInfo, error) {
	ns := root.DefaultNamespace()

	info := &CatalogInfo{}
	if svc := root.FindDescendant(ns, "service", "serviceType", serviceOpendap); svc != nil {
		info.OpendapBaseURL, _ = svc.Get("base")
	}
	if svc := root.FindDescendant(ns, "service", "serviceType", serviceNcML); svc != nil {
		info.NcMLBaseURL, _ = svc.Get("base")
	}

	top := root.Find(ns, "dataset")
	if top == nil {
		return nil, &MalformedError{Doc: "catalog", Reason: "no top-level dataset element"}
	}
	info.Name, _ = top.Get("name")

	xlink, ok := root.Namespace("xlink")
	if !ok {
		xlink = xlinkNamespace
	}

	// Datasets and refs may sit inside wrapper elements such as metadata;
	// they belong to the nearest enclosing dataset.
	var walk func(el *Element, parent int) *DatasetNode
	var visit func(el *Element, node *DatasetNode, self int)
	walk = func(el *Element, parent int) *DatasetNode {
		node := datasetNode(ns, el, parent)
		info.Datasets = append(info.Datasets, node)
		visit(el, node, len(info.Datasets)-1)
		return node
	}
	visit = func(el *Element, node *DatasetNode, self int) {
		for _, child := range el.Children {
			switch {
			case child.is(ns, "dataset"):
				node.Children = append(node.Children, walk(child, self))
			case child.is(ns, "catalogRef"):
				info.CatalogRefs = append(info.CatalogRefs, catalogRef(xlink, child))
			default:
				visit(child, node, self)
			}
		}
	}
	walk(top, -1)

	return info, nil
}

func datasetNode(ns string, el *Element, parent int) *DatasetNode {
	name, _ := el.Get("name")
	id, ok := el.Get("ID")
	if !ok {
		id = name
	}
	urlPath, _ := el.Get("urlPath")

	size := sizeUnknown
	if sz := el.Find(ns, "dataSize"); sz != nil {
		units, _ := sz.Get("units")
		size = sz.TrimmedText() + units
	}

	return &DatasetNode{
		ID:      id,
		Name:    name,
		URLPath: urlPath,
		Size:    size,
		Parent:  parent,
	}
}

func catalogRef(xlink string, el *Element) CatalogRef {
	href, ok := el.GetNS(xlink, "href")
	if !ok {
		href, _ = el.Get("href")
	}
	title, ok := el.GetNS(xlink, "title")
	if !ok {
		title, _ = el.Get("title")
	}
	id, ok := el.Get("ID")
	if !ok {
		id = title
	}
	return CatalogRef{Href: href, Title: title, ID: id}
}
