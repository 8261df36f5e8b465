package errors

import "strings"

// Configuration

func ConfigInvalid(path string, cause error) *DocWatchError {
	return Wrap(cause, CategoryConfig, "configuration invalid").WithContext("path", path)
}

// Command line

func InvalidArguments(toolchain string, cause error) *DocWatchError {
	return Wrap(cause, CategoryValidation, "invalid arguments").WithContext("toolchain", toolchain)
}

func MixedToolchains(swapFiles []string) *DocWatchError {
	return New(CategoryValidation, "found swap files for both LaTeX and Markdown sources ("+
		strings.Join(swapFiles, ", ")+"); name the files explicitly").
		WithContext("swap_files", swapFiles)
}

func NoInputs() *DocWatchError {
	return New(CategoryValidation, "no source file given and no editor swap file found")
}

// Watch sessions

func ReadFailed(path string, attempts int, cause error) *DocWatchError {
	return Wrap(cause, CategoryFileSystem, "watched file could not be read").
		WithContext("path", path).
		WithContext("attempts", attempts)
}

func AuxDirFailed(dir string, cause error) *DocWatchError {
	return Wrap(cause, CategoryFileSystem, "auxiliary directory could not be created").
		WithContext("dir", dir)
}

func InternalError(message string, cause error) *DocWatchError {
	return Wrap(cause, CategoryInternal, message)
}
