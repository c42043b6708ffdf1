package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long the files must be quiet before compiling again
const debounce = 300 * time.Millisecond

// watch compiles the input files once, and again every time one of them is modified.
// It returns only when the watcher fails.
func (r *run) watch(inputFileNames []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	// Editors replace files instead of writing them, so we watch the directories
	inputs := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, name := range inputFileNames {
		abs, err := filepath.Abs(name)
		if err != nil {
			return err
		}
		inputs[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	compile := func() {
		fmt.Println("************Processing*************")
		if err := r.compileAll(inputFileNames); err != nil {
			r.log.Errorw("compilation failed", "error", err)
		}
	}
	compile()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !inputs[abs] {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			compile()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching input files: %w", err)
		}
	}
}
