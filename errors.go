/*
Copyright © 2026 Salma <salma247@pm.me>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Player-facing failures. Each is returned only to the client whose
// request triggered it, never broadcast to the room.
var (
	ErrInvalidInput        = errors.New("player name and room are required")
	ErrDuplicateName       = errors.New("that name is already taken in this room")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrNoActiveRound       = errors.New("no question is currently active")
	ErrQuestionUnavailable = errors.New("question source unavailable")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon())
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
