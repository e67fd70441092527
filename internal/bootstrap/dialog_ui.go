package bootstrap

import (
	"go.uber.org/zap"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

const dialogTitle = "KC85 Transfer"

// dialogUI answers engine call-outs with native message dialogs.
type dialogUI struct {
	app *App
}

// Confirm shows a yes/no question. Without a window the answer is no.
func (u *dialogUI) Confirm(question string) bool {
	ctx, err := u.app.runtimeContext()
	if err != nil {
		return false
	}
	answer, err := wailsruntime.MessageDialog(ctx, wailsruntime.MessageDialogOptions{
		Type:          wailsruntime.QuestionDialog,
		Title:         dialogTitle,
		Message:       question,
		Buttons:       []string{"Yes", "No"},
		DefaultButton: "Yes",
		CancelButton:  "No",
	})
	if err != nil {
		u.app.Logger.Warn("question dialog failed", zap.Error(err))
		return false
	}
	return answer == "Yes"
}

// NotifyError shows an error dialog and logs the message.
func (u *dialogUI) NotifyError(message string) {
	u.app.Logger.Error("transfer error", zap.String("message", message))
	ctx, err := u.app.runtimeContext()
	if err != nil {
		return
	}
	if _, err := wailsruntime.MessageDialog(ctx, wailsruntime.MessageDialogOptions{
		Type:    wailsruntime.ErrorDialog,
		Title:   dialogTitle,
		Message: message,
	}); err != nil {
		u.app.Logger.Warn("error dialog failed", zap.Error(err))
	}
}
