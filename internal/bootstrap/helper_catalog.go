package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kc-transfer/internal/domain"
	"kc-transfer/internal/format"
	"kc-transfer/internal/jobs"
)

const (
	helperStubLow  = "stub_0200"
	helperStubHigh = "stub_bf00"
	helperBascoder = "bascoder"
)

var helperCatalog = []domain.HelperImage{
	{
		ID:          helperStubLow,
		Name:        "Turbo loader (0200)",
		FileName:    "Polling_2400_8N1_ESC-T_0200.bin",
		LoadAddress: 0x0200,
		Raw:         true,
		Description: "2400 baud polling loader for programs above the loader.",
	},
	{
		ID:          helperStubHigh,
		Name:        "Turbo loader (BF00)",
		FileName:    "Polling_2400_8N1_ESC-T_BF00.bin",
		LoadAddress: 0xBF00,
		Raw:         true,
		Description: "2400 baud polling loader for programs starting at 0200.",
	},
	{
		ID:          helperBascoder,
		Name:        "BASICODE companion",
		FileName:    "BAC854-5.KCB",
		Description: "Bascoder memory image, loaded before BASICODE listings.",
	},
}

// HelperCatalog returns the helper images the planner knows about.
func HelperCatalog() []domain.HelperImage {
	helpers := make([]domain.HelperImage, len(helperCatalog))
	copy(helpers, helperCatalog)
	return helpers
}

// GetHelpers returns the helper catalog with presence in the helper directory.
func (a *App) GetHelpers() []domain.HelperImage {
	a.mu.Lock()
	dir := a.Settings.HelperDir
	a.mu.Unlock()

	helpers := HelperCatalog()
	markPresentHelpers(helpers, dir)
	return helpers
}

// markPresentHelpers flags catalog entries whose file exists in dir.
func markPresentHelpers(helpers []domain.HelperImage, dir string) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return
	}
	for i := range helpers {
		path := filepath.Join(dir, helpers[i].FileName)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		helpers[i].Present = true
		helpers[i].LocalPath = path
	}
}

// loadHelpers reads the helper images found in dir. Missing files leave the
// matching slot nil so the planner can report exactly what is absent; files
// that exist but do not parse are returned as an error.
func loadHelpers(dir string) (jobs.Helpers, error) {
	var (
		helpers jobs.Helpers
		errs    []error
	)
	for _, image := range helperCatalog {
		data, err := os.ReadFile(filepath.Join(dir, image.FileName))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", image.FileName, err))
			continue
		}

		desc, err := parseHelper(image, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		switch image.ID {
		case helperStubLow:
			helpers.StubLow = &desc
		case helperStubHigh:
			helpers.StubHigh = &desc
		case helperBascoder:
			helpers.Bascoder = &desc
		}
	}
	return helpers, errors.Join(errs...)
}

func parseHelper(image domain.HelperImage, data []byte) (domain.TransferDescriptor, error) {
	if image.Raw {
		desc, err := format.MachineCodeAt(data, image.LoadAddress)
		if err != nil {
			return domain.TransferDescriptor{}, fmt.Errorf("helper %s: %w", image.FileName, err)
		}
		return desc, nil
	}

	desc := format.Classify(data)
	if desc.IsError || desc.Kind != domain.ContentBasicMemoryImage {
		return domain.TransferDescriptor{}, fmt.Errorf("helper %s: not a BASIC memory image (code %d)", image.FileName, desc.ValidCode)
	}
	return desc, nil
}
