package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"supplynet/pkg/apperror"
	"supplynet/pkg/config"
	"supplynet/pkg/domain"
	"supplynet/pkg/logger"
)

// Форматы файла сети
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

var validate = validator.New()

// NetworkFile описание сети поставок во входном файле
type NetworkFile struct {
	Name      string                      `yaml:"name,omitempty" json:"name,omitempty"`
	Suppliers []NodeSpec                  `yaml:"suppliers,omitempty" json:"suppliers,omitempty" validate:"required_without=Nodes,dive"`
	DCs       []NodeSpec                  `yaml:"dcs,omitempty" json:"dcs,omitempty" validate:"dive"`
	Retail    []NodeSpec                  `yaml:"retail,omitempty" json:"retail,omitempty" validate:"required_without=Nodes,dive"`
	Nodes     []TypedNodeSpec             `yaml:"nodes,omitempty" json:"nodes,omitempty" validate:"dive"`
	Edges     []EdgeSpec                  `yaml:"edges" json:"edges" validate:"required,min=1,dive"`
	Demand    map[int64]map[int64]float64 `yaml:"demand" json:"demand" validate:"required"`
	Cost      *CostSpec                   `yaml:"cost,omitempty" json:"cost,omitempty"`
}

// NodeSpec узел: просто id или {id, name}
type NodeSpec struct {
	ID   int64  `yaml:"id" json:"id" validate:"gte=0"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// TypedNodeSpec узел с явным типом, альтернатива спискам по уровням
type TypedNodeSpec struct {
	ID   int64  `yaml:"id" json:"id" validate:"gte=0"`
	Type string `yaml:"type" json:"type" validate:"required"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// EdgeSpec ребро: [from, to], [from, to, length] или объект
type EdgeSpec struct {
	From      int64   `yaml:"from" json:"from"`
	To        int64   `yaml:"to" json:"to"`
	Length    float64 `yaml:"length,omitempty" json:"length,omitempty" validate:"gte=0"`
	Pheromone float64 `yaml:"pheromone,omitempty" json:"pheromone,omitempty" validate:"gte=0"`
}

// CostSpec блок модели эффективного расстояния
type CostSpec struct {
	Kind     string  `yaml:"kind" json:"kind" validate:"omitempty,oneof=exponential linear bpr"`
	Base     float64 `yaml:"base,omitempty" json:"base,omitempty"`
	Scale    float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	Decay    float64 `yaml:"decay,omitempty" json:"decay,omitempty"`
	Slope    float64 `yaml:"slope,omitempty" json:"slope,omitempty"`
	FreeFlow float64 `yaml:"free_flow,omitempty" json:"free_flow,omitempty"`
	Capacity float64 `yaml:"capacity,omitempty" json:"capacity,omitempty" validate:"gte=0"`
	Alpha    float64 `yaml:"alpha,omitempty" json:"alpha,omitempty"`
	Power    float64 `yaml:"power,omitempty" json:"power,omitempty"`
	Numeric  bool    `yaml:"numeric,omitempty" json:"numeric,omitempty"`
	Step     float64 `yaml:"step,omitempty" json:"step,omitempty" validate:"gte=0"`
}

// Network разобранная сеть
type Network struct {
	Graph  *domain.Graph
	Demand domain.Demand
	// Cost nil, если блок cost в файле отсутствует
	Cost *config.CostConfig
}

// UnmarshalYAML принимает скаляр или объект
func (n *NodeSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&n.ID)
	}
	type plain NodeSpec
	return value.Decode((*plain)(n))
}

// MarshalYAML пишет безымянный узел как число
func (n NodeSpec) MarshalYAML() (any, error) {
	if n.Name == "" {
		return n.ID, nil
	}
	type plain NodeSpec
	return plain(n), nil
}

// UnmarshalJSON принимает число или объект
func (n *NodeSpec) UnmarshalJSON(data []byte) error {
	var id int64
	if err := json.Unmarshal(data, &id); err == nil {
		n.ID = id
		return nil
	}
	type plain NodeSpec
	return json.Unmarshal(data, (*plain)(n))
}

// UnmarshalYAML принимает последовательность или объект
func (e *EdgeSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var tuple []float64
		if err := value.Decode(&tuple); err != nil {
			return err
		}
		return e.fromTuple(tuple)
	}
	type plain EdgeSpec
	return value.Decode((*plain)(e))
}

// MarshalYAML пишет ребро без атрибутов как [from, to]
func (e EdgeSpec) MarshalYAML() (any, error) {
	if e.Length == 0 && e.Pheromone == 0 {
		node := &yaml.Node{}
		if err := node.Encode([]int64{e.From, e.To}); err != nil {
			return nil, err
		}
		node.Style = yaml.FlowStyle
		return node, nil
	}
	type plain EdgeSpec
	return plain(e), nil
}

// UnmarshalJSON принимает массив или объект
func (e *EdgeSpec) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var tuple []float64
		if err := json.Unmarshal(trimmed, &tuple); err != nil {
			return err
		}
		return e.fromTuple(tuple)
	}
	type plain EdgeSpec
	return json.Unmarshal(data, (*plain)(e))
}

func (e *EdgeSpec) fromTuple(tuple []float64) error {
	if len(tuple) < 2 || len(tuple) > 3 {
		return fmt.Errorf("edge must be [from, to] or [from, to, length], got %d values", len(tuple))
	}
	for _, v := range tuple[:2] {
		if v != math.Trunc(v) {
			return fmt.Errorf("edge endpoint %g is not an integer id", v)
		}
	}
	e.From = int64(tuple[0])
	e.To = int64(tuple[1])
	if len(tuple) == 3 {
		e.Length = tuple[2]
	}
	return nil
}

// FormatFromPath определяет формат по расширению; по умолчанию yaml
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Load читает и разбирает файл сети
func Load(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeIO, "failed to read network file").
			WithDetails("path", path)
	}
	return Parse(data, FormatFromPath(path))
}

// Decode разбирает файл без построения графа
func Decode(data []byte, format string) (*NetworkFile, error) {
	var nf NetworkFile

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&nf); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeInvalidGraph, "invalid json network")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&nf); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeInvalidGraph, "invalid yaml network")
		}
	default:
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("unknown network format %q", format), "format")
	}

	if err := validate.Struct(&nf); err != nil {
		return nil, validationError(err)
	}

	return &nf, nil
}

// Parse разбирает файл и строит граф и матрицу спроса
func Parse(data []byte, format string) (*Network, error) {
	nf, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return nf.ToDomain()
}

// ToDomain строит граф. Дубликаты id и рёбра к неизвестным узлам - ошибки.
func (nf *NetworkFile) ToDomain() (*Network, error) {
	g := domain.NewGraph()
	g.Name = nf.Name
	verrs := apperror.NewValidationErrors()

	groups := []struct {
		specs []NodeSpec
		typ   domain.NodeType
	}{
		{nf.Suppliers, domain.NodeTypeSupplier},
		{nf.DCs, domain.NodeTypeDC},
		{nf.Retail, domain.NodeTypeRetail},
	}
	addNode := func(id int64, typ domain.NodeType, name string) {
		if existing, ok := g.GetNode(id); ok {
			verrs.Add(apperror.Newf(apperror.CodeDuplicateNode,
				"node %d declared as %s and %s", id, existing.Type, typ).
				WithDetails("node", id))
			return
		}
		g.AddNode(&domain.Node{ID: id, Type: typ, Name: name})
	}

	for _, group := range groups {
		for _, spec := range group.specs {
			addNode(spec.ID, group.typ, spec.Name)
		}
	}
	for i, spec := range nf.Nodes {
		typ, err := domain.ParseNodeType(spec.Type)
		if err != nil {
			verrs.AddErrorWithField(apperror.CodeInvalidGraph, err.Error(), fmt.Sprintf("nodes[%d].type", i))
			continue
		}
		addNode(spec.ID, typ, spec.Name)
	}

	for i, spec := range nf.Edges {
		field := fmt.Sprintf("edges[%d]", i)
		missing := false
		for _, id := range []int64{spec.From, spec.To} {
			if _, ok := g.GetNode(id); !ok {
				verrs.Add(apperror.NewWithField(apperror.CodeUnknownNode,
					fmt.Sprintf("edge %d->%d references unknown node %d", spec.From, spec.To, id), field))
				missing = true
			}
		}
		if missing {
			continue
		}
		if _, ok := g.GetEdge(spec.From, spec.To); ok {
			verrs.Add(apperror.NewWarning(apperror.CodeInvalidGraph,
				fmt.Sprintf("duplicate edge %d->%d, last definition wins", spec.From, spec.To)).WithField(field))
		}
		g.AddEdge(&domain.Edge{
			From:      spec.From,
			To:        spec.To,
			Length:    spec.Length,
			Pheromone: spec.Pheromone,
		})
	}

	demand := domain.NewDemand()
	for s, row := range nf.Demand {
		for r, v := range row {
			demand.Set(s, r, v)
		}
	}

	for _, w := range verrs.Warnings {
		logger.Warn(w.Message, w.LogAttrs()...)
	}
	if verrs.HasErrors() {
		return nil, verrs.Err()
	}

	network := &Network{Graph: g, Demand: demand}
	if nf.Cost != nil {
		cost := nf.Cost.ToConfig()
		network.Cost = &cost
	}
	return network, nil
}

// ToConfig переводит блок cost в конфигурацию модели
func (c *CostSpec) ToConfig() config.CostConfig {
	return config.CostConfig{
		Kind:     c.Kind,
		Base:     c.Base,
		Scale:    c.Scale,
		Decay:    c.Decay,
		Slope:    c.Slope,
		FreeFlow: c.FreeFlow,
		Capacity: c.Capacity,
		Alpha:    c.Alpha,
		Power:    c.Power,
		Numeric:  c.Numeric,
		Step:     c.Step,
	}
}

// FromDomain строит описание файла из графа и спроса
func FromDomain(g *domain.Graph, demand domain.Demand) *NetworkFile {
	nf := &NetworkFile{
		Name:   g.Name,
		Demand: make(map[int64]map[int64]float64),
	}

	for _, id := range g.SortedNodeIDs() {
		node, _ := g.GetNode(id)
		spec := NodeSpec{ID: id, Name: node.Name}
		switch node.Type {
		case domain.NodeTypeSupplier:
			nf.Suppliers = append(nf.Suppliers, spec)
		case domain.NodeTypeDC:
			nf.DCs = append(nf.DCs, spec)
		case domain.NodeTypeRetail:
			nf.Retail = append(nf.Retail, spec)
		}
	}

	for _, e := range g.SortedEdges() {
		spec := EdgeSpec{From: e.From, To: e.To}
		if e.Length != domain.DefaultLength {
			spec.Length = e.Length
		}
		nf.Edges = append(nf.Edges, spec)
	}

	for _, s := range demand.Suppliers() {
		nf.Demand[s] = demand.Row(s)
	}

	return nf
}

// Encode сериализует описание сети
func Encode(nf *NetworkFile, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(nf, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(nf); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("unknown network format %q", format), "format")
	}
}

// Save пишет описание сети в файл, формат по расширению
func Save(path string, nf *NetworkFile) error {
	data, err := Encode(nf, FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperror.Wrap(err, apperror.CodeIO, "failed to write network file").
			WithDetails("path", path)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Wrap(err, apperror.CodeInvalidGraph, "invalid network file")
	}

	collected := apperror.NewValidationErrors()
	for _, fe := range verrs {
		collected.Add(apperror.NewWithField(apperror.CodeInvalidGraph,
			fmt.Sprintf("failed on '%s' (value %v)", fe.Tag(), fe.Value()), fe.Namespace()))
	}
	return collected.Err()
}
