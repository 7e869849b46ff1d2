package thredds

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// NcMLNamespace is the namespace NcML 2.2 documents declare.
const NcMLNamespace = "http://www.unidata.ucar.edu/namespaces/netcdf/ncml-2.2"

const threddsMetadataGroup = "THREDDSMetadata"

// ParseNcML decodes NcML document bytes. id is used as the dataset
// identifier unless the document embeds its own.
func ParseNcML(data []byte, id string) (*DatasetInfo, error) {
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	return NcMLFromXML(root, id)
}

// ParseNcMLFile reads and decodes the NcML document at path.
func ParseNcMLFile(path, id string) (*DatasetInfo, error) {
	root, err := ParseXMLFile(path)
	if err != nil {
		return nil, err
	}
	return NcMLFromXML(root, id)
}

// NcMLFromXML builds a DatasetInfo from an already decoded NcML document.
func NcMLFromXML(root *Element, id string) (*DatasetInfo, error) {
	log := zap.L().Named("ncml")
	ns := root.DefaultNamespace()
	if ns == "" {
		ns = root.Name.Space
	}

	info := &DatasetInfo{ID: id, URLPath: id, Meta: NewDatasetMeta()}

	if group := root.FindDescendant(ns, "group", "name", threddsMetadataGroup); group != nil {
		if el := group.FindDescendant(ns, "attribute", "name", "id"); el != nil {
			if v, ok := el.Get("value"); ok && v != "" {
				info.ID = v
			}
		}
		if el := group.FindDescendant(ns, "attribute", "name", "opendap_service"); el != nil {
			info.OpendapService, _ = el.Get("value")
		}
	}

	for _, v := range root.FindAll(ns, "variable") {
		name, _ := v.Get("name")
		shape, ok := v.Get("shape")
		if !ok {
			return nil, &MalformedError{Doc: "ncml", Reason: "variable " + strconv.Quote(name) + " has no shape"}
		}
		typ, _ := v.Get("type")
		desc := &VariableDescriptor{
			Name:       name,
			Type:       typ,
			Shape:      strings.Fields(shape),
			Attributes: Attributes{},
		}
		for _, a := range v.FindAll(ns, "attribute") {
			if attrName, value, ok := parseAttribute(log, a); ok {
				desc.Attributes[attrName] = value
			}
		}
		info.Meta.Variables[name] = desc
	}

	for _, a := range root.FindAll(ns, "attribute") {
		if name, value, ok := parseAttribute(log, a); ok {
			info.Meta.Attributes[name] = value
		}
	}

	for _, d := range root.FindAll(ns, "dimension") {
		name, _ := d.Get("name")
		length, _ := d.Get("length")
		info.Meta.Dimensions[name] = length
	}

	return info, nil
}

// parseAttribute reads an <attribute> element. Numeric types are coerced;
// when coercion fails the raw string is kept.
func parseAttribute(log *zap.Logger, el *Element) (string, Value, bool) {
	name, ok := el.Get("name")
	if !ok {
		log.Error("attribute element without name, skipping")
		return "", Value{}, false
	}
	raw, ok := el.Get("value")
	if !ok {
		return name, Value{}, true
	}
	typ, _ := el.Get("type")
	value := coerce(typ, raw)
	if typ != "" && value.Kind == KindString && numericType(typ) {
		log.Warn("failed to parse attribute value",
			zap.String("attribute", name), zap.String("type", typ), zap.String("value", raw))
	}
	return name, value, true
}

func numericType(typ string) bool {
	switch strings.ToLower(typ) {
	case "float", "double", "int", "long", "short":
		return true
	}
	return false
}

func coerce(typ, raw string) Value {
	switch strings.ToLower(typ) {
	case "float", "double":
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return FloatValue(f)
		}
	case "int", "long", "short":
		if i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			return IntValue(i)
		}
	}
	return StringValue(raw)
}
