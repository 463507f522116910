// Package archive indexes a web-application archive (WAR) without extracting it.
//
// An [Index] owns the single open handle to the outer archive. It reads the
// manifest once, requires a War-Main-Class attribute, and scans the central
// directory once to classify entries:
//   - WEB-INF/classes/**.class: compiled code units, collectively one root
//   - WEB-INF/lib/**.jar: dependency archives, one root each
//
// Everything else is ignored. The resulting entry table and root list never
// change after construction.
//
// Entries are addressed by [Location] values of the form
// war://WEB-INF/lib/a.jar!/com/example/Util.class. Locations are synthetic;
// they are never written to disk.
package archive
