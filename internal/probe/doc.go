// Package probe runs ffprobe and parses its JSON output.
//
// The planner needs one number from it (the audio duration, which bounds
// cut selection); the pipeline also uses stream info to reject inputs that
// carry no audio and to log still-image sizes.
package probe
