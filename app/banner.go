// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"
	"golang.org/x/term"
)

const environmentDevelopment = "development"

// colorWriter downsamples ANSI colors to what w supports. Outside
// development every escape sequence is stripped.
func (a *App) colorWriter(w io.Writer) *colorprofile.Writer {
	cpw := colorprofile.NewWriter(w, os.Environ())
	if a.settings.Logging.Environment != environmentDevelopment {
		cpw.Profile = colorprofile.NoTTY
	}
	return cpw
}

// printBanner prints the service name, the listen address, the
// observability state and, in development, the route table.
func (a *App) printBanner(addr, protocol string) {
	if a.bannerOutput == nil {
		return
	}
	w := a.colorWriter(a.bannerOutput)
	s := a.settings

	art := figure.NewFigure(s.Logging.ServiceName, "", false).Slicify()
	gradient := []string{"10", "11"}
	if s.Logging.Environment == environmentDevelopment {
		gradient = []string{"12", "14", "10", "11"}
	}

	var styled strings.Builder
	for _, line := range art {
		if strings.TrimSpace(line) == "" {
			styled.WriteString("\n")
			continue
		}
		for i, ch := range line {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[i%len(gradient)])).Bold(true)
			styled.WriteString(style.Render(string(ch)))
		}
		styled.WriteString("\n")
	}

	category := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14).PaddingLeft(2)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	disabled := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	bracket := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	if strings.HasPrefix(addr, ":") {
		addr = "0.0.0.0" + addr
	}
	scheme := "http://"
	if protocol == "HTTPS" {
		scheme = "https://"
	}
	addr = scheme + addr

	version := s.Logging.Version
	if version == "" {
		version = "dev"
	}

	row := func(b *strings.Builder, name, v string) {
		fmt.Fprintf(b, "%s  %s\n", label.Render(name+":"), v)
	}

	var out strings.Builder
	out.WriteString(category.Render("Service") + "\n")
	row(&out, "Version", value.Foreground(lipgloss.Color("14")).Render(version))
	row(&out, "Environment", value.Foreground(lipgloss.Color("11")).Render(s.Logging.Environment))
	row(&out, "Address", value.Foreground(lipgloss.Color("10")).Render(addr))
	if s.Router.Prefix != "/" {
		row(&out, "Prefix", value.Render(s.Router.Prefix))
	}

	out.WriteString("\n" + category.Render("Observability") + "\n")
	if a.metrics != nil {
		line := value.Foreground(lipgloss.Color("12")).Render("Enabled") + "  " +
			bracket.Render(fmt.Sprintf("[%s]", a.metrics.Provider()))
		if a.metrics.Provider() == "prometheus" {
			line += "  " + value.Render(addr+s.Metrics.Path)
		}
		row(&out, "Metrics", line)
	} else {
		row(&out, "Metrics", disabled.Render("Disabled"))
	}
	if a.tracer != nil {
		row(&out, "Tracing", value.Foreground(lipgloss.Color("12")).Render("Enabled")+"  "+
			bracket.Render(fmt.Sprintf("[%s]", a.tracer.Provider())))
	} else {
		row(&out, "Tracing", disabled.Render("Disabled"))
	}
	if !s.Health.Disabled {
		row(&out, "Health", value.Render(s.Health.Liveness+", "+s.Health.Readiness))
	}
	if a.docs != nil {
		out.WriteString("\n" + category.Render("Documentation") + "\n")
		row(&out, "OpenAPI", value.Foreground(lipgloss.Color("14")).Render(addr+s.Docs.Path))
		if s.Docs.UIPath != "" {
			row(&out, "API Docs", value.Foreground(lipgloss.Color("14")).Render(addr+s.Docs.UIPath))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, styled.String())
	fmt.Fprintln(w)
	fmt.Fprint(w, out.String())
	if s.Logging.Environment == environmentDevelopment {
		fmt.Fprintln(w)
		a.renderRoutes(w, 80)
	}
	fmt.Fprintln(w)
}

var methodColors = map[string]string{
	http.MethodGet:     "10",
	http.MethodPost:    "12",
	http.MethodPut:     "11",
	http.MethodDelete:  "9",
	http.MethodPatch:   "13",
	http.MethodHead:    "14",
	http.MethodOptions: "7",
}

// renderRoutes writes the route table, at least width columns wide unless
// the terminal is narrower.
func (a *App) renderRoutes(w io.Writer, width int) {
	routes := a.router.Routes()
	if len(routes) == 0 {
		return
	}
	colored := a.settings.Logging.Environment == environmentDevelopment

	rows := make([][]string, 0, len(routes))
	contentWidth := len("Methods") + len("Type") + len("Path") + len("Name")
	for _, rt := range routes {
		methods := rt.Methods()
		plain := strings.Join(methods, ",")
		shown := plain
		if colored {
			parts := make([]string, len(methods))
			for i, m := range methods {
				parts[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(methodColors[m])).Bold(true).Render(m)
			}
			shown = strings.Join(parts, ",")
		}
		contentWidth = max(contentWidth, len(plain)+len(rt.Type())+len(rt.Path())+len(rt.Name()))
		rows = append(rows, []string{shown, string(rt.Type()), rt.Path(), rt.Name()})
	}

	// borders, separators and one cell of padding on each side
	tableWidth := max(2+3+8+contentWidth, width)
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			tableWidth = min(tableWidth, tw)
		}
	}
	tableWidth = max(60, tableWidth)

	border := lipgloss.NewStyle()
	if colored {
		border = border.Foreground(lipgloss.Color("240"))
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow && colored {
				style = style.Bold(true).Foreground(lipgloss.Color("230"))
			}
			return style
		}).
		Headers("Methods", "Type", "Path", "Name").
		Rows(rows...).
		Width(tableWidth)

	fmt.Fprintln(w, t.Render())
}

// PrintRoutes writes the route table to w.
func (a *App) PrintRoutes(w io.Writer) {
	a.renderRoutes(a.colorWriter(w), 120)
}
