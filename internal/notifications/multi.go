package notifications

import "errors"

// MultiNotifier delivers each alert to every channel. All channels are
// tried; the joined error reports the ones that failed.
type MultiNotifier []Notifier

func (m MultiNotifier) SendAlert(level, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.SendAlert(level, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
