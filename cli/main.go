// Command cli is a terminal client for the mise prep API. It prints the day's
// prep sheet, suggestions and low stock, and drives the approve and complete
// steps from the pass.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mise/internal/kitchen"
	"mise/internal/models"
	"mise/internal/prep"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	recipeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0a84ff"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#30d158")).
			Strikethrough(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8e8e93"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff9f0a")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

const usage = `usage: cli [flags] <command> [args]

commands:
  sheet [date]                 show the prep sheet
  suggestions [date]           show the stored suggestions
  generate [date]              forecast suggestions
  adjust <id> <quantity>       change a suggestion's quantity
  approve [date] [ids...]      approve pending suggestions
  done <date> <task-id>        complete a prep task
  low                          show low stock
`

func main() {
	apiURL := flag.String("url", "", "API base URL (default $MISE_API_URL or http://localhost:8080)")
	kitchenID := flag.String("kitchen", "main", "Kitchen ID")
	token := flag.String("token", "", "Bearer token for writes (default $MISE_TOKEN)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := NewApiClient(*apiURL, *kitchenID, *token)
	out, err := run(client, flag.Arg(0), flag.Args()[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
	fmt.Println(docStyle.Render(out))
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func run(client *ApiClient, command string, args []string) (string, error) {
	switch command {
	case "sheet":
		sheet, err := client.GetPrepSheet(arg(args, 0))
		if err != nil {
			return "", err
		}
		return renderSheet(sheet), nil

	case "suggestions":
		suggestions, err := client.GetSuggestions(arg(args, 0))
		if err != nil {
			return "", err
		}
		return renderSuggestions(suggestions), nil

	case "generate":
		suggestions, err := client.GenerateSuggestions(arg(args, 0))
		if err != nil {
			return "", err
		}
		return renderSuggestions(suggestions), nil

	case "adjust":
		if len(args) != 2 {
			return "", fmt.Errorf("adjust needs a suggestion id and a quantity")
		}
		quantity, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("invalid quantity %q", args[1])
		}
		review, err := client.AdjustQuantity(args[0], quantity)
		if err != nil {
			return "", err
		}
		return renderReview(review), nil

	case "approve":
		var ids []string
		if len(args) > 1 {
			ids = args[1:]
		}
		approval, err := client.Approve(arg(args, 0), ids)
		if err != nil {
			return "", err
		}
		header := fmt.Sprintf("Approved %d suggestion(s), %d new task(s)", len(approval.Approved), len(approval.Tasks))
		return header + "\n\n" + renderSheet(&approval.PrepSheet), nil

	case "done":
		if len(args) != 2 {
			return "", fmt.Errorf("done needs a date and a task id")
		}
		sheet, err := client.CompleteTask(args[0], args[1])
		if err != nil {
			return "", err
		}
		return renderSheet(sheet), nil

	case "low":
		items, err := client.GetLowStock()
		if err != nil {
			return "", err
		}
		return renderLowStock(items), nil
	}
	return "", fmt.Errorf("unknown command %q", command)
}

func renderSheet(sheet *kitchen.SheetView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Prep sheet %s (%s)", sheet.Date, sheet.Weekday)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s remaining of %s, %s", sheet.RemainingTimeLabel, sheet.TotalTimeLabel, sheet.Status)))
	b.WriteString("\n")

	if len(sheet.Groups) == 0 {
		b.WriteString("\nNothing to prep.\n")
		return b.String()
	}

	for _, group := range sheet.Groups {
		b.WriteString("\n")
		b.WriteString(recipeStyle.Render(group.RecipeName))
		b.WriteString("\n")
		for _, task := range group.Tasks {
			line := fmt.Sprintf("  %-18s %8.3f %-3s %s  [%s]", task.IngredientName, task.Quantity, task.Unit,
				prep.FormatMinutes(task.EstimatedTime), task.ID)
			if task.IsCompleted {
				line = doneStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderSuggestions(suggestions []models.PrepSuggestion) string {
	var b strings.Builder
	if len(suggestions) == 0 {
		return "No suggestions."
	}

	b.WriteString(titleStyle.Render(fmt.Sprintf("Suggestions %s (%s)", suggestions[0].Date, suggestions[0].Weekday)))
	b.WriteString("\n\n")
	for _, s := range suggestions {
		line := fmt.Sprintf("%-20s %3d batch(es)  %-9s [%s]", s.RecipeName, s.UserQuantity, s.Status, s.ID)
		if s.UserQuantity != s.SuggestedQuantity {
			line += mutedStyle.Render(fmt.Sprintf(" forecast %d", s.SuggestedQuantity))
		}
		if s.HasShortage {
			line += " " + warnStyle.Render("shortage")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderReview(review *kitchen.Review) string {
	var b strings.Builder
	s := review.Suggestion
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s x%d", s.RecipeName, s.UserQuantity)))
	b.WriteString("\n")

	if len(review.Shortages) == 0 {
		b.WriteString("\nEverything is in stock.\n")
		return b.String()
	}
	b.WriteString("\n")
	for _, shortage := range review.Shortages {
		b.WriteString(fmt.Sprintf("  %-18s need %8.3f %-3s have %8.3f\n",
			shortage.IngredientName, shortage.Required, shortage.Unit, shortage.Available))
	}
	return b.String()
}

func renderLowStock(items []models.InventoryItem) string {
	if len(items) == 0 {
		return "Stock is fine."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Low stock"))
	b.WriteString("\n\n")
	for _, item := range items {
		b.WriteString(fmt.Sprintf("  %-18s %8.3f %-3s alert at %.3f\n", item.Name, item.Quantity, item.Unit, item.AlertLevel))
	}
	return b.String()
}
