/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package spawnapi

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/kais-io/kais/internal/spawn"
)

// SlackNotifier posts terminal/approval signals to a configured incoming
// webhook. A zero-value SlackNotifier (empty WebhookURL) is a harmless no-op,
// so callers never need to nil-check it.
type SlackNotifier struct {
	WebhookURL string
}

// NotifySpawnPending posts a message announcing a spawn request now awaits
// operator approval.
func (n SlackNotifier) NotifySpawnPending(req spawn.PendingRequest) error {
	if n.WebhookURL == "" {
		return nil
	}
	text := fmt.Sprintf(":hourglass: spawn request `%s` from cell `%s` (namespace `%s`) is awaiting approval",
		req.ID, req.ParentCellID, req.Namespace)
	return slack.PostWebhook(n.WebhookURL, &slack.WebhookMessage{Text: text})
}

// NotifyMissionTerminal posts a message announcing a Mission reached a
// terminal phase.
func (n SlackNotifier) NotifyMissionTerminal(namespace, name, phase, message string) error {
	if n.WebhookURL == "" {
		return nil
	}
	icon := ":white_check_mark:"
	if phase != "Succeeded" {
		icon = ":x:"
	}
	text := fmt.Sprintf("%s mission `%s/%s` reached phase `%s`", icon, namespace, name, phase)
	if message != "" {
		text += fmt.Sprintf(": %s", message)
	}
	return slack.PostWebhook(n.WebhookURL, &slack.WebhookMessage{Text: text})
}
