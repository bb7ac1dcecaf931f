package storage

import (
	"time"

	"taskboard/internal/task"
)

type seedRow struct {
	id, title, description string
	status                 task.Status
	priority               task.Priority
	due, created, updated  string
	tags                   []string
	assignee               string
}

var seedRows = []seedRow{
	{"1", "Design User Interface", "Create mockups and wireframes for the application", task.StatusInProgress, task.PriorityHigh, "2024-02-15", "2024-01-15", "2024-01-20", []string{"design", "ui"}, "Ana Garcia"},
	{"2", "Implement Authentication", "Login and user registration system", task.StatusToDo, task.PriorityMedium, "", "2024-01-16", "2024-01-16", []string{"backend", "security"}, "Carlos Lopez"},
	{"3", "Unit Testing", "Write tests for main components", task.StatusDone, task.PriorityLow, "", "2024-01-10", "2024-01-18", []string{"testing"}, ""},
	{"4", "Database Schema Design", "Design and create database tables for user management and task storage", task.StatusDone, task.PriorityHigh, "2024-01-25", "2024-01-08", "2024-01-22", []string{"database", "backend"}, "Maria Rodriguez"},
	{"5", "API Documentation", "Document all REST API endpoints with examples", task.StatusInProgress, task.PriorityMedium, "2024-02-20", "2024-01-18", "2024-01-21", []string{"documentation", "api"}, "David Kim"},
	{"6", "Performance Optimization", "Optimize database queries and improve loading times", task.StatusToDo, task.PriorityMedium, "2024-03-01", "2024-01-19", "2024-01-19", []string{"performance", "optimization"}, "Sarah Johnson"},
	{"7", "Mobile Responsive Design", "Ensure all components work properly on mobile devices", task.StatusInProgress, task.PriorityHigh, "2024-02-10", "2024-01-12", "2024-01-20", []string{"frontend", "mobile", "css"}, "Ana Garcia"},
	{"8", "Code Review Process", "Establish code review guidelines and implement PR templates", task.StatusDone, task.PriorityLow, "", "2024-01-05", "2024-01-15", []string{"process", "quality"}, "Carlos Lopez"},
	{"9", "Security Audit", "Conduct comprehensive security testing and vulnerability assessment", task.StatusToDo, task.PriorityHigh, "2024-02-28", "2024-01-20", "2024-01-20", []string{"security", "audit"}, "Michael Chen"},
	{"10", "User Analytics Integration", "Implement Google Analytics and user behavior tracking", task.StatusToDo, task.PriorityLow, "", "2024-01-17", "2024-01-17", []string{"analytics", "tracking"}, "Sarah Johnson"},
	{"11", "Email Notification System", "Build automated email notifications for task updates and deadlines", task.StatusInProgress, task.PriorityMedium, "2024-02-25", "2024-01-14", "2024-01-21", []string{"backend", "notifications", "email"}, "David Kim"},
	{"12", "Backup Strategy", "Implement automated database backups and disaster recovery plan", task.StatusDone, task.PriorityHigh, "2024-01-30", "2024-01-01", "2024-01-28", []string{"infrastructure", "backup"}, "Maria Rodriguez"},
	{"13", "Dark Mode Implementation", "Add dark mode theme option with user preference storage", task.StatusToDo, task.PriorityLow, "", "2024-01-21", "2024-01-21", []string{"frontend", "ui", "theme"}, "Ana Garcia"},
	{"14", "Integration Testing", "Write integration tests for API endpoints and user workflows", task.StatusInProgress, task.PriorityMedium, "2024-02-18", "2024-01-11", "2024-01-19", []string{"testing", "integration"}, "Michael Chen"},
	{"15", "Error Handling Improvement", "Improve error messages and implement better error boundaries", task.StatusDone, task.PriorityMedium, "", "2024-01-06", "2024-01-16", []string{"frontend", "error-handling"}, "Sarah Johnson"},
	{"16", "Load Testing", "Perform load testing to ensure system handles expected traffic", task.StatusToDo, task.PriorityHigh, "2024-03-05", "2024-01-22", "2024-01-22", []string{"testing", "performance"}, "David Kim"},
	{"17", "User Onboarding Flow", "Create guided onboarding experience for new users", task.StatusInProgress, task.PriorityMedium, "2024-02-22", "2024-01-13", "2024-01-20", []string{"frontend", "ux", "onboarding"}, "Ana Garcia"},
	{"18", "Accessibility Improvements", "Ensure WCAG 2.1 compliance and improve keyboard navigation", task.StatusToDo, task.PriorityMedium, "2024-03-10", "2024-01-16", "2024-01-16", []string{"frontend", "accessibility", "a11y"}, "Michael Chen"},
	{"19", "CI/CD Pipeline Setup", "Configure automated deployment pipeline with testing and staging environments", task.StatusDone, task.PriorityHigh, "2024-01-20", "2024-01-02", "2024-01-18", []string{"devops", "ci-cd", "automation"}, "Carlos Lopez"},
	{"20", "Customer Feedback System", "Implement in-app feedback collection and rating system", task.StatusToDo, task.PriorityLow, "", "2024-01-19", "2024-01-19", []string{"frontend", "feedback", "ui"}, "Sarah Johnson"},
}

// DefaultTasks returns the collection a fresh install starts with.
func DefaultTasks() []task.Task {
	tasks := make([]task.Task, 0, len(seedRows))
	for _, r := range seedRows {
		t := task.Task{
			ID:          r.id,
			Title:       r.title,
			Description: r.description,
			Status:      r.status,
			Priority:    r.priority,
			CreatedAt:   mustDate(r.created),
			UpdatedAt:   mustDate(r.updated),
			Tags:        append([]string(nil), r.tags...),
			Assignee:    r.assignee,
		}
		if r.due != "" {
			due := mustDate(r.due)
			t.DueDate = &due
		}
		tasks = append(tasks, t)
	}
	return tasks
}

func mustDate(v string) time.Time {
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		panic(err)
	}
	return t
}
