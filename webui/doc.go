// Package webui serves a minimal browser chat in front of the support API.
//
// Every visitor gets a session cookie; their transcript is kept in a
// session.Store and rendered server side. Each message is sent to the API
// synchronously and the page is re-rendered with the answer.
//
// When a Reviewer is configured the handler also serves /code, a form that
// takes pasted or uploaded code and renders its codeassist.Report.
package webui
