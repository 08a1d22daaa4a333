package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	appbook "github.com/xiebiao/stockmanagement/internal/application/book"
)

var bookHeaders = []string{"ID", "NAME", "AUTHOR", "PUBLISHER", "PRICE", "ISBN", "SALE DATE", "STOCK"}

// render 按输出格式写出v，table格式调用tableFn
func (o *rootOptions) render(w io.Writer, v interface{}, tableFn func(io.Writer) error) error {
	switch o.output {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return tableFn(w)
	}
}

// writeBookTable 图书表格
func writeBookTable(w io.Writer, books []appbook.BookDTO) error {
	rows := make([][]string, len(books))
	for i, b := range books {
		rows[i] = []string{
			strconv.FormatUint(uint64(b.ID), 10),
			b.Name,
			b.Author,
			b.Publisher,
			strconv.FormatInt(b.Price, 10),
			b.ISBNCode,
			b.SaleDate,
			strconv.Itoa(b.Stock),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(bookHeaders...).
		Rows(rows...)
	if !color.NoColor {
		header := lipgloss.NewStyle().Bold(true)
		t = t.StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return lipgloss.NewStyle()
		})
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// ok 绿色成功提示
func ok(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, color.GreenString("✓"), fmt.Sprintf(format, a...))
}
