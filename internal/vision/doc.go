// Package vision implements template matching against captured screen images.
//
// Matching uses normalized cross-correlation over grayscale, so it is robust
// to uniform brightness changes but assumes the template appears at its
// original scale. Coordinates follow the standard image convention: (0,0)
// top-left, X rightward, Y downward. Returned hit points are the geometric
// center of the matched template-sized window, in the coordinate space of
// the searched image.
//
// TemplateCache keeps decoded template images in memory so the polling loop
// does not re-read template files every iteration. A template that cannot be
// read or decoded is remembered as a negative entry; lookups for it report
// a miss rather than an error.
package vision
