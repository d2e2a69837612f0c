package main

import (
	"log"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"

	"github.com/ezrec/nibble/cpu"
)

// watchSource re-assembles the source file whenever it changes, and sends
// each successfully assembled program on the returned channel.
func watchSource(source string, defines defineList) (progs <-chan *cpu.Program, stop func(), err error) {
	source = filepath.Clean(source)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}
	if err = watcher.Watch(filepath.Dir(source)); err != nil {
		watcher.Close()
		return
	}

	ch := make(chan *cpu.Program)
	done := make(chan struct{})
	go func() {
		var build <-chan time.Time
		for {
			select {
			case <-done:
				return
			case <-build:
				log.Printf("dev: build %s", filepath.Base(source))
				prog, err := assemble(source, defines)
				if err != nil {
					log.Printf("dev: %v", err)
					break
				}
				select {
				case ch <- prog:
				case <-done:
					return
				}
			case ev := <-watcher.Event:
				if filepath.Clean(ev.Name) == source && !ev.IsAttrib() {
					build = time.After(100 * time.Millisecond)
				}
			case err := <-watcher.Error:
				log.Printf("dev: watcher: %v", err)
			}
		}
	}()

	progs = ch
	stop = func() {
		close(done)
		watcher.Close()
	}
	return
}
