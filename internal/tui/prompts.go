package tui

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/tuannvm/crowdseed/internal/config"
)

// ErrCancelled is returned when the operator aborts a form.
var ErrCancelled = errors.New("cancelled")

// maxCount bounds a single creation batch entered at the prompt.
const maxCount = 1000

// PromptCreateUsers asks for the population description and the number of
// users. Values already set in opts are used as defaults.
func PromptCreateUsers(opts config.CreateUsersOptions, accessible bool) (config.CreateUsersOptions, error) {
	result := opts
	countStr := ""
	if opts.Count > 0 {
		countStr = strconv.Itoa(opts.Count)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Description").
				Description("Who should these people be?").
				Placeholder("retired teachers from the Midwest who follow local politics").
				CharLimit(2000).
				Validate(validateDescription).
				Value(&result.Description),

			huh.NewInput().
				Title("Number of users").
				Placeholder("5").
				Validate(validateCount).
				Value(&countStr),
		).Title("Create users"),
	).WithTheme(CrowdseedTheme()).WithAccessible(accessible || !isTerminal())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return opts, ErrCancelled
		}
		return opts, fmt.Errorf("form error: %w", err)
	}

	count, err := parseCount(countStr)
	if err != nil {
		return opts, err
	}
	result.Description = strings.TrimSpace(result.Description)
	result.Count = count
	return result, nil
}

// PromptReact asks for the id of the post to react to.
func PromptReact(opts config.ReactOptions, accessible bool) (config.ReactOptions, error) {
	result := opts

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Post id").
				Description("Every user will comment on this post").
				Validate(validatePostID).
				Value(&result.PostID),
		).Title("React to post"),
	).WithTheme(CrowdseedTheme()).WithAccessible(accessible || !isTerminal())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return opts, ErrCancelled
		}
		return opts, fmt.Errorf("form error: %w", err)
	}

	result.PostID = strings.TrimSpace(result.PostID)
	return result, nil
}

func validateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("description is required")
	}
	return nil
}

func validateCount(s string) error {
	_, err := parseCount(s)
	return err
}

func validatePostID(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("post id is required")
	}
	return nil
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New("enter a whole number")
	}
	if n < 1 || n > maxCount {
		return 0, fmt.Errorf("enter a number between 1 and %d", maxCount)
	}
	return n, nil
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
