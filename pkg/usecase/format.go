package usecase

import (
	"fmt"
	"strconv"

	"github.com/m-mizutani/gitlab-telegram/pkg/domain/model"
)

// Formatters build MarkdownV2 notification text from a webhook event. They
// return false when the event does not warrant a notification, either because
// a required field is missing or because the action/status is not announced.

// FormatIssue formats issue events. Announced actions: open, reopen, close.
func FormatIssue(event *model.WebhookEvent) (string, bool) {
	name, title, url, ok := titledEventFields(event)
	if !ok {
		return "", false
	}

	switch event.ObjectAttributes.Action {
	case "open":
		return fmt.Sprintf(`🐞 New issue created by: %s \- [%s](%s)`, name, title, url), true
	case "reopen":
		return fmt.Sprintf(`🐞 Issue re\-opened by: %s \- [%s](%s)`, name, title, url), true
	case "close":
		return fmt.Sprintf(`🐞 Issue closed by: %s \- [%s](%s)`, name, title, url), true
	default:
		return "", false
	}
}

// FormatMergeRequest formats merge request events. Announced actions: open,
// reopen, merge, close. Only open and reopen name the acting user.
func FormatMergeRequest(event *model.WebhookEvent) (string, bool) {
	name, title, url, ok := titledEventFields(event)
	if !ok {
		return "", false
	}

	switch event.ObjectAttributes.Action {
	case "open":
		return fmt.Sprintf(`🍒 New merge request opened by: %s \- [%s](%s)`, name, title, url), true
	case "reopen":
		return fmt.Sprintf(`🍒 Merge request is re\-opened again by: %s \- [%s](%s)`, name, title, url), true
	case "merge":
		return fmt.Sprintf(`🍒 Merge request is merged successfully \- [%s](%s)`, title, url), true
	case "close":
		return fmt.Sprintf(`🍒 Merge request is closed \- [%s](%s)`, title, url), true
	default:
		return "", false
	}
}

// titledEventFields extracts the fields shared by issue and merge request
// events. Title and url only need to be present; action and user name must
// not be empty. Name and title are returned escaped.
func titledEventFields(event *model.WebhookEvent) (name, title, url string, ok bool) {
	attr := event.ObjectAttributes
	if attr == nil || attr.Action == "" || event.UserName() == "" || attr.Title == nil || attr.URL == nil {
		return "", "", "", false
	}
	return EscapeMarkdown(event.UserName()), EscapeMarkdown(*attr.Title), *attr.URL, true
}

// FormatPipeline formats pipeline events. Failed pipelines are always
// announced, successful ones only if showSuccess is set.
func FormatPipeline(event *model.WebhookEvent, showSuccess bool) (string, bool) {
	attr := event.ObjectAttributes
	if attr == nil || attr.Status == "" || event.UserName() == "" {
		return "", false
	}

	var icon, result string
	switch {
	case attr.Status == "failed":
		icon, result = "❌", "failed"
	case attr.Status == "success" && showSuccess:
		icon, result = "✅", "succeeded"
	default:
		return "", false
	}

	var id, url string
	if attr.ID != nil {
		id = strconv.FormatInt(*attr.ID, 10)
	}
	if attr.URL != nil {
		url = *attr.URL
	}

	var commitTitle string
	if event.Commit != nil {
		commitTitle = event.Commit.Title
	}

	var mrSuffix string
	if event.HasMergeRequest() {
		mrSuffix = fmt.Sprintf(`\. Part of MR [%d](%s)`, *event.MergeRequest.IID, event.MergeRequest.URL)
	}

	return fmt.Sprintf(`%s Pipeline [\#%s](%s) on %s %s\! From user: %s, with commit: %s%s`,
		icon, id, url,
		EscapeMarkdown(event.Ref()),
		result,
		EscapeMarkdown(event.UserName()),
		EscapeMarkdown(commitTitle),
		mrSuffix,
	), true
}

// FormatDeployment formats successful deployment events
func FormatDeployment(event *model.WebhookEvent) (string, bool) {
	if event.Status != "success" {
		return "", false
	}

	env := event.Environment
	url := event.EnvironmentExternalURL
	return fmt.Sprintf(`🚀📦 Deployment job is successful\! Deployed to %s at: [%s](%s)`, env, url, url), true
}

// FormatRelease formats release creation events
func FormatRelease(event *model.WebhookEvent) (string, bool) {
	if event.Action != "create" || event.Project == nil || event.Project.Name == "" || event.Tag == "" || event.URL == "" {
		return "", false
	}

	return fmt.Sprintf(`📢🚀🎂 New release is out\! %s version %s \- [Download now](%s)`,
		EscapeMarkdown(event.Project.Name),
		EscapeMarkdown(event.Tag),
		event.URL,
	), true
}
