/*
go-objsize measures the physical width and height of segmented objects seen
in a live video stream.

A detector (typically a YOLO segmentation model) supplies a polygon per
object.  For each polygon the minimum area oriented rectangle and the area
centroid are computed, width and height axes are laid through the centroid
and clipped to the polygon so the drawn lines stay on the object, and the
rectangle's sides are converted to physical units using a pixels per unit
Scale.

The Scale is produced by a separate two click calibration session where the
user marks two points a known real world distance apart.

See the programs in the example subdirectory for the live measurement and
calibration modes.
*/
package objsize
