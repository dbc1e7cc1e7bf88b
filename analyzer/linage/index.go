package linage

// Index provides scoped lookups over field and data source identities.
// Field names are unique within a data source only, so every lookup is scoped.
type Index struct {
	dataSources map[string]*DataSource
	dsCaptions  map[string][]string
	original    map[FieldID]*OriginalField
	calculated  map[FieldID]*CalculatedField
	captions    map[string]map[string][]string // data source -> caption -> field names
}

// NewIndex builds an index over the tables
func NewIndex(t *Tables) *Index {
	idx := &Index{
		dataSources: make(map[string]*DataSource, len(t.DataSources)),
		dsCaptions:  make(map[string][]string),
		original:    make(map[FieldID]*OriginalField, len(t.OriginalFields)),
		calculated:  make(map[FieldID]*CalculatedField, len(t.CalculatedFields)),
		captions:    make(map[string]map[string][]string),
	}
	for _, ds := range t.DataSources {
		idx.dataSources[ds.ID] = ds
		if ds.Caption != "" {
			idx.dsCaptions[ds.Caption] = append(idx.dsCaptions[ds.Caption], ds.ID)
		}
	}
	for _, field := range t.OriginalFields {
		idx.original[field.FieldID] = field
		idx.addCaption(field.FieldID, field.Caption)
	}
	for _, field := range t.CalculatedFields {
		idx.calculated[field.FieldID] = field
		idx.addCaption(field.FieldID, field.Caption)
	}
	return idx
}

func (i *Index) addCaption(id FieldID, caption string) {
	if caption == "" || caption == id.Name {
		return
	}
	byCaption, ok := i.captions[id.DataSource]
	if !ok {
		byCaption = make(map[string][]string)
		i.captions[id.DataSource] = byCaption
	}
	byCaption[caption] = append(byCaption[caption], id.Name)
}

// DataSource returns a data source by ID
func (i *Index) DataSource(id string) *DataSource {
	return i.dataSources[id]
}

// LookupDataSource resolves a qualifier by ID first, then by a unique caption
func (i *Index) LookupDataSource(qualifier string) (string, bool) {
	if _, ok := i.dataSources[qualifier]; ok {
		return qualifier, true
	}
	if ids := i.dsCaptions[qualifier]; len(ids) == 1 {
		return ids[0], true
	}
	return "", false
}

// Kind returns the node kind of a known field
func (i *Index) Kind(id FieldID) (NodeKind, bool) {
	if _, ok := i.calculated[id]; ok {
		return CalculatedFieldNode, true
	}
	if _, ok := i.original[id]; ok {
		return OriginalFieldNode, true
	}
	return "", false
}

// LookupField resolves name within dataSource, by field name first and then by a unique caption
func (i *Index) LookupField(dataSource, name string, matchCaptions bool) (FieldID, bool) {
	id := FieldID{DataSource: dataSource, Name: name}
	if _, ok := i.Kind(id); ok {
		return id, true
	}
	if !matchCaptions {
		return FieldID{}, false
	}
	if names := i.captions[dataSource][name]; len(names) == 1 {
		return FieldID{DataSource: dataSource, Name: names[0]}, true
	}
	return FieldID{}, false
}
