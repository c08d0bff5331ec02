package visualizer

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andrab0/scenegraph/pkg/scene"
)

// The HTML template for the D3.js scene view
const d3Template = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <script src="https://d3js.org/d3.v7.min.js"></script>
    <style>
        body {
            margin: 0;
            font-family: Arial, sans-serif;
        }
        #graph {
            width: 100%;
            height: 100vh;
            background-color: #f5f5f5;
        }
        .node {
            stroke: #333;
            stroke-width: 1.5px;
        }
        .link {
            stroke: #999;
            stroke-opacity: 0.8;
            marker-end: url(#arrow);
        }
        .node-label, .link-label {
            font-size: 11px;
            pointer-events: none;
        }
        .link-label {
            fill: #555;
        }
        .controls {
            position: absolute;
            top: 10px;
            left: 10px;
            background-color: rgba(255,255,255,0.8);
            padding: 10px;
            border-radius: 5px;
            box-shadow: 0 0 10px rgba(0,0,0,0.1);
        }
    </style>
</head>
<body>
    <div id="graph"></div>
    <div class="controls">
        <h3>{{.Title}}</h3>
        <p>Objects: {{.ObjectCount}}, Relations: {{.RelationCount}}</p>
        <div>
            <label for="relation-filter">Filter by relation:</label>
            <select id="relation-filter">
                <option value="all">All Relations</option>
            </select>
        </div>
    </div>

    <script>
        const graphData = {{.GraphData}};

        const simulation = d3.forceSimulation(graphData.nodes)
            .force("link", d3.forceLink(graphData.links).id(d => d.id).distance(140))
            .force("charge", d3.forceManyBody().strength(-400))
            .force("center", d3.forceCenter(window.innerWidth / 2, window.innerHeight / 2));

        const svg = d3.select("#graph")
            .append("svg")
            .attr("width", "100%")
            .attr("height", "100%")
            .call(d3.zoom().on("zoom", (event) => {
                g.attr("transform", event.transform);
            }));

        svg.append("defs").append("marker")
            .attr("id", "arrow")
            .attr("viewBox", "0 -5 10 10")
            .attr("refX", 22)
            .attr("markerWidth", 6)
            .attr("markerHeight", 6)
            .attr("orient", "auto")
            .append("path")
            .attr("d", "M0,-5L10,0L0,5")
            .attr("fill", "#999");

        const g = svg.append("g");

        const fill = d => d.color || "#ccc";

        const relationTypes = [...new Set(graphData.links.map(l => l.relation))];
        relationTypes.forEach(type => {
            d3.select("#relation-filter")
                .append("option")
                .attr("value", type)
                .text(type);
        });

        const link = g.append("g")
            .selectAll("line")
            .data(graphData.links)
            .enter()
            .append("line")
            .attr("class", "link")
            .attr("stroke-width", 2);

        const linkLabel = g.append("g")
            .selectAll("text")
            .data(graphData.links)
            .enter()
            .append("text")
            .attr("class", "link-label")
            .text(d => d.relation);

        const node = g.append("g")
            .selectAll("circle")
            .data(graphData.nodes)
            .enter()
            .append("circle")
            .attr("class", "node")
            .attr("r", d => d.radius)
            .attr("fill", fill)
            .call(d3.drag()
                .on("start", dragstarted)
                .on("drag", dragged)
                .on("end", dragended));

        const label = g.append("g")
            .selectAll("text")
            .data(graphData.nodes)
            .enter()
            .append("text")
            .attr("class", "node-label")
            .attr("dx", 14)
            .attr("dy", ".35em")
            .text(d => d.label);

        node.append("title")
            .text(d => d.id + " (" + d.type + ")");

        simulation.on("tick", () => {
            link
                .attr("x1", d => d.source.x)
                .attr("y1", d => d.source.y)
                .attr("x2", d => d.target.x)
                .attr("y2", d => d.target.y);

            linkLabel
                .attr("x", d => (d.source.x + d.target.x) / 2)
                .attr("y", d => (d.source.y + d.target.y) / 2);

            node
                .attr("cx", d => d.x)
                .attr("cy", d => d.y);

            label
                .attr("x", d => d.x)
                .attr("y", d => d.y);
        });

        d3.select("#relation-filter").on("change", function() {
            const selected = this.value;
            const visible = d => selected === "all" || d.relation === selected ? "visible" : "hidden";
            link.style("visibility", visible);
            linkLabel.style("visibility", visible);
        });

        function dragstarted(event, d) {
            if (!event.active) simulation.alphaTarget(0.3).restart();
            d.fx = d.x;
            d.fy = d.y;
        }

        function dragged(event, d) {
            d.fx = event.x;
            d.fy = event.y;
        }

        function dragended(event, d) {
            if (!event.active) simulation.alphaTarget(0);
            d.fx = null;
            d.fy = null;
        }
    </script>
</body>
</html>
`

var tmpl = template.Must(template.New("d3").Parse(d3Template))

// named CSS colors for the closed color vocabulary; materials get a close tint
var swatches = map[string]string{
	"red":    "#e74c3c",
	"blue":   "#3498db",
	"green":  "#2ecc71",
	"black":  "#2c3e50",
	"white":  "#ffffff",
	"pink":   "#f78fb3",
	"brown":  "#8e5b3a",
	"yellow": "#f1c40f",
	"wooden": "#b8860b",
	"metal":  "#95a5a6",
	"glass":  "#d6eaf8",
}

type node struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Label  string `json:"label"`
	Color  string `json:"color,omitempty"`
	Radius int    `json:"radius"`
}

type link struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

type view struct {
	Nodes []node `json:"nodes"`
	Links []link `json:"links"`
}

// D3Visualizer writes scene graphs as standalone D3.js HTML pages
type D3Visualizer struct {
	outputPath string
}

// NewD3Visualizer creates a visualizer writing to outputPath
func NewD3Visualizer(outputPath string) *D3Visualizer {
	return &D3Visualizer{
		outputPath: outputPath,
	}
}

// Visualize renders graph to the visualizer's output path
func (v *D3Visualizer) Visualize(graph *scene.SceneGraph) error {
	if err := os.MkdirAll(filepath.Dir(v.outputPath), 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	title := strings.TrimSuffix(filepath.Base(v.outputPath), filepath.Ext(v.outputPath))
	if err := Render(&buf, title, graph); err != nil {
		return err
	}
	return os.WriteFile(v.outputPath, buf.Bytes(), 0644)
}

// Render writes the HTML page for graph to w
func Render(w io.Writer, title string, graph *scene.SceneGraph) error {
	if graph == nil {
		return fmt.Errorf("nil scene graph")
	}

	data := struct {
		Title         string
		GraphData     view
		ObjectCount   int
		RelationCount int
	}{
		Title:         title,
		GraphData:     toView(graph),
		ObjectCount:   len(graph.Objects),
		RelationCount: len(graph.Relations),
	}
	return tmpl.Execute(w, data)
}

func toView(graph *scene.SceneGraph) view {
	v := view{
		Nodes: make([]node, 0, len(graph.Objects)),
		Links: make([]link, 0, len(graph.Relations)),
	}
	for _, o := range graph.Objects {
		n := node{ID: o.ID, Type: o.Type, Label: o.Type, Radius: 10}
		var words []string
		if o.Attributes.Size != nil {
			words = append(words, *o.Attributes.Size)
			if strings.Contains(*o.Attributes.Size, "large") || strings.Contains(*o.Attributes.Size, "tall") {
				n.Radius = 14
			} else if strings.Contains(*o.Attributes.Size, "small") {
				n.Radius = 7
			}
		}
		if o.Attributes.Color != nil {
			words = append(words, *o.Attributes.Color)
			for _, c := range strings.Fields(*o.Attributes.Color) {
				if hex, ok := swatches[c]; ok {
					n.Color = hex
					break
				}
			}
		}
		if len(words) > 0 {
			n.Label = strings.Join(words, " ") + " " + o.Type
		}
		v.Nodes = append(v.Nodes, n)
	}
	for _, r := range graph.Relations {
		v.Links = append(v.Links, link{Source: r.Subject, Target: r.Object, Relation: string(r.Relation)})
	}
	return v
}
