package data

// Dataset is an immutable table with one designated target column. Subset
// returns views sharing the same backing rows; nothing mutates them after
// construction.
type Dataset struct {
	name   string
	attrs  []Attribute
	cells  [][]float64
	index  []int
	target int
}

// New validates the schema and builds a dataset over rows. Rows are owned by
// the dataset afterwards.
func New(name string, attrs []Attribute, rows [][]float64, target int) (*Dataset, error) {
	if len(attrs) == 0 {
		return nil, invalidf("esquema sem atributos")
	}
	if target < 0 || target >= len(attrs) {
		return nil, invalidf("índice do alvo %d fora do intervalo [0,%d)", target, len(attrs))
	}
	if attrs[target].Kind == Categorical && len(attrs[target].Values) == 0 {
		return nil, invalidf("alvo categórico %q sem valores", attrs[target].Name)
	}
	for i, row := range rows {
		if len(row) != len(attrs) {
			return nil, invalidf("linha %d tem %d colunas, esperado %d", i, len(row), len(attrs))
		}
		for j, v := range row {
			if attrs[j].Kind != Categorical || IsMissing(v) {
				continue
			}
			if v != float64(int(v)) || int(v) < 0 || int(v) >= len(attrs[j].Values) {
				return nil, invalidf("linha %d: valor %v fora do domínio de %q", i, v, attrs[j].Name)
			}
		}
	}
	index := make([]int, len(rows))
	for i := range index {
		index[i] = i
	}
	a := make([]Attribute, len(attrs))
	copy(a, attrs)
	return &Dataset{name: name, attrs: a, cells: rows, index: index, target: target}, nil
}

// Validate checks that the dataset can take part in an evaluation.
func (d *Dataset) Validate() error {
	if d == nil || d.Len() == 0 {
		return invalidf("nenhuma linha")
	}
	if d.ColumnCount() < 2 {
		return invalidf("são necessárias ao menos 2 colunas, encontrada(s) %d", d.ColumnCount())
	}
	return nil
}

func (d *Dataset) Name() string { return d.name }

func (d *Dataset) Len() int { return len(d.index) }

func (d *Dataset) RowCount() int { return len(d.index) }

func (d *Dataset) ColumnCount() int { return len(d.attrs) }

func (d *Dataset) TargetIndex() int { return d.target }

func (d *Dataset) TargetKind() Kind { return d.attrs[d.target].Kind }

func (d *Dataset) Target() Attribute { return d.attrs[d.target] }

func (d *Dataset) Attribute(j int) Attribute { return d.attrs[j] }

func (d *Dataset) Attributes() []Attribute {
	out := make([]Attribute, len(d.attrs))
	copy(out, d.attrs)
	return out
}

// Classes returns the domain of a categorical target, nil otherwise.
func (d *Dataset) Classes() []string {
	if d.TargetKind() != Categorical {
		return nil
	}
	return d.attrs[d.target].Values
}

func (d *Dataset) NumClasses() int { return len(d.Classes()) }

// FeatureIndices lists every column except the target, in schema order.
func (d *Dataset) FeatureIndices() []int {
	out := make([]int, 0, len(d.attrs)-1)
	for j := range d.attrs {
		if j != d.target {
			out = append(out, j)
		}
	}
	return out
}

// Row returns the backing slice of row i. Callers must not modify it.
func (d *Dataset) Row(i int) []float64 { return d.cells[d.index[i]] }

func (d *Dataset) Value(i, j int) float64 { return d.cells[d.index[i]][j] }

func (d *Dataset) TargetValue(i int) float64 { return d.cells[d.index[i]][d.target] }

func (d *Dataset) Targets() []float64 {
	out := make([]float64, d.Len())
	for i := range out {
		out[i] = d.TargetValue(i)
	}
	return out
}

// Origin maps a row of this view to its index in the dataset it was loaded as.
func (d *Dataset) Origin(i int) int { return d.index[i] }

// Subset returns a view over the given rows of d, in the given order.
func (d *Dataset) Subset(indices []int) *Dataset {
	index := make([]int, len(indices))
	for k, i := range indices {
		index[k] = d.index[i]
	}
	return &Dataset{name: d.name, attrs: d.attrs, cells: d.cells, index: index, target: d.target}
}

// Label renders cell (i, j) the way it was read.
func (d *Dataset) Label(i, j int) string {
	return d.attrs[j].Format(d.Value(i, j))
}
