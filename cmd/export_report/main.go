package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/disaforms-backend/internal/app"
	"github.com/yungbote/disaforms-backend/internal/services"
)

type formList []string

func (l *formList) String() string { return strings.Join(*l, ",") }
func (l *formList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var formTypes formList
	var from, to, machine, format, outDir string
	flag.Var(&formTypes, "form", "form type to export (repeatable; default all)")
	flag.StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	flag.StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	flag.StringVar(&machine, "machine", "", "restrict to one machine")
	flag.StringVar(&format, "format", services.FormatPDF, "pdf or xlsx")
	flag.StringVar(&outDir, "out", ".", "output directory")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if len(formTypes) == 0 {
		for _, s := range application.Catalog.All() {
			formTypes = append(formTypes, s.Type)
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Printf("create %s: %v\n", outDir, err)
		os.Exit(1)
	}

	ctx := context.Background()
	failed := 0
	for _, ft := range formTypes {
		out, err := application.Services.Reports.Render(ctx, services.RangeQuery{
			FormType: ft,
			From:     from,
			To:       to,
			Machine:  machine,
		}, format)
		if err != nil {
			fmt.Printf("%s: %v\n", ft, err)
			failed++
			continue
		}
		path := filepath.Join(outDir, out.Filename)
		if err := os.WriteFile(path, out.Body, 0o644); err != nil {
			fmt.Printf("%s: write %s: %v\n", ft, path, err)
			failed++
			continue
		}
		fmt.Printf("%s: %d page(s) -> %s\n", ft, out.Pages, path)
	}
	if failed > 0 {
		application.Close()
		os.Exit(1)
	}
}
