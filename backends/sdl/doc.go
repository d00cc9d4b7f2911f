// Package sdl provides backend adapters on top of SDL2. Build with the
// sdl2 tag to enable it; without the tag the package is empty and the
// engine falls back to the headless backend.
package sdl
