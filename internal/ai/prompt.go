package ai

import (
	"fmt"
	"strings"
)

const generalSystemPrompt = `You are an Indian financial advisor. Provide smart investment strategies based on the user's budget.
Answer in points and always end with concrete suggestions.`

const budgetSystemPrompt = `You are an Indian financial advisor. Provide personalized budgeting and investment advice for the Indian market, with amounts in rupees.
Include a short summary or conclusion. Do not over-explain; give only valuable suggestions, in points.`

// BuildBudgetPrompt renders the user's figures as the question sent with budgetSystemPrompt.
func BuildBudgetPrompt(b Budget) string {
	sources := make([]string, 0, len(b.Sources))
	for _, s := range b.Sources {
		sources = append(sources, fmt.Sprintf("%s: %s", s.Name, s.Amount.String()))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("User has a monthly income of %s, with sources: %s. ",
		b.Income.String(), strings.Join(sources, ", ")))
	sb.WriteString(fmt.Sprintf("Total living expenses are %s. ", b.LivingExpenses.String()))
	sb.WriteString(fmt.Sprintf("User invests %s in %s. ", b.InvestmentAmount.String(), b.InvestmentArea))
	sb.WriteString(fmt.Sprintf("Savings after all expenses and investments is %s. ", b.Savings().String()))
	sb.WriteString(fmt.Sprintf("User's goal is to %s.\n", b.Goal))
	sb.WriteString("Provide personalized financial advice on budget optimization, investment improvement, " +
		"savings growth, and achieving the user's goal.")

	return sb.String()
}
