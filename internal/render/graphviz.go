// Package render рисует рассчитанную оргсхему.
package render

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/org-chart-api/internal/domain"
)

// Renderer отрисовывает раскладку в заданный writer
type Renderer interface {
	Render(ctx context.Context, layout *domain.Layout, w io.Writer) error
	ContentType() string
}

// SVGRenderer рисует схему в SVG через Graphviz
type SVGRenderer struct{}

// NewSVGRenderer создаёт SVG-рендерер
func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{}
}

func (r *SVGRenderer) ContentType() string {
	return "image/svg+xml"
}

func (r *SVGRenderer) Render(ctx context.Context, layout *domain.Layout, w io.Writer) error {
	if layout == nil {
		return fmt.Errorf("render: layout is nil")
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("render: init graphviz: %w", err)
	}
	defer gv.Close()
	// neato оставляет закреплённые узлы на заданных позициях
	gv.SetLayout(graphviz.NEATO)

	graph, err := gv.Graph()
	if err != nil {
		return fmt.Errorf("render: create graph: %w", err)
	}
	defer graph.Close()

	nodes := make(map[int64]*cgraph.Node, len(layout.Nodes))
	for _, n := range layout.Nodes {
		node, err := graph.CreateNodeByName(nodeName(n.ID))
		if err != nil {
			return fmt.Errorf("render: create node %d: %w", n.ID, err)
		}
		node.SetLabel(label(n.Employee))
		node.SetShape("box")
		node.SetStyle("rounded,filled")
		node.SetFillColor(fillColor(n.Depth))
		// Graphviz ось Y направлена вверх, pos задаётся в дюймах
		node.SetPos(n.X/pointsPerInch, -n.Y/pointsPerInch)
		node.SetPin(true)
		nodes[n.ID] = node
	}

	for _, e := range layout.Edges {
		from, to := nodes[e.SourceID], nodes[e.TargetID]
		if from == nil || to == nil {
			return fmt.Errorf("render: edge %s references unknown node", e.ID)
		}
		edge, err := graph.CreateEdgeByName(e.ID, from, to)
		if err != nil {
			return fmt.Errorf("render: create edge %s: %w", e.ID, err)
		}
		edge.SetColor("#666666")
	}

	if err := gv.Render(ctx, graph, graphviz.SVG, w); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

const pointsPerInch = 72.0

func nodeName(id int64) string {
	return "emp_" + strconv.FormatInt(id, 10)
}

func label(emp domain.Employee) string {
	return emp.FullName + "\\n" + emp.Designation + "\\n" + emp.Department
}

var palette = []string{"#E8F0FE", "#E6F4EA", "#FEF7E0", "#FCE8E6"}

func fillColor(depth int) string {
	return palette[depth%len(palette)]
}
