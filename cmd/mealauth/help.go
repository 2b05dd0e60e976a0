package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func printHelp() {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ade80")).
		Bold(true).
		Render("M E A L   A U T H")

	sub := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("식수 인증 키오스크")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"mealauth", "Run the kiosk (interactive TUI)"},
		{"mealauth status", "Show the stored device pairing and check it"},
		{"mealauth logout", "Forget this device's pairing"},
		{"mealauth admin", "Open the admin dashboard in a browser"},
		{"mealauth serve", "Serve the web client through the offline cache"},
		{"mealauth --version", "Show version"},
		{"mealauth help", "You are here"},
	}

	fmt.Printf("\n  %s\n  %s\n\n  Commands:\n", title, sub)
	for _, c := range commands {
		fmt.Printf("    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}

	envStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#d4a844"))
	env := []struct{ name, desc string }{
		{"MEALAUTH_API_URL", "backend base URL"},
		{"MEALAUTH_CONFIG", "YAML config file (default ~/.mealauth/config.yaml)"},
		{"MEALAUTH_STORE", "session store: file, sqlite, redis, memory"},
		{"MEALAUTH_SCANNER_DEVICE", "QR reader device path, or \"simulate\""},
		{"MEALAUTH_CACHE_VERSION", "cache name; bump on deploy to evict old assets"},
	}
	fmt.Printf("\n  Environment:\n")
	for _, e := range env {
		fmt.Printf("    %s  %s\n", envStyle.Render(fmt.Sprintf("%-24s", e.name)), descStyle.Render(e.desc))
	}
	fmt.Println()
}
