// Package bridge moves JSON requests and responses across the linear memory
// boundary of a loaded transaction library.
//
// A call follows a fixed protocol:
//
//  1. The request is encoded to JSON and a zero byte is appended.
//  2. len+1 bytes are allocated through the library's allocator export.
//  3. The encoded bytes are written at the returned offset.
//  4. The export is invoked with that offset and returns the response offset.
//  5. The response is read up to its first zero byte and checked for UTF-8.
//  6. The text is decoded into the response, or into an *errors.Error when the
//     library reported {"error": Tag, "value": payload}.
//  7. Both buffers are released through the free export exactly once, on
//     every path.
//
// Memory is fetched from the Foreign implementation on every access because
// the library may grow it during a call. A Bridge serialises its calls; use
// one Bridge per instance and a pool of instances for concurrent callers.
package bridge
