// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strm

// Serial identifies a reader within its ring. Serials are assigned per
// ring in registration order, starting at 1; readers of different rings
// may share a serial value.
type Serial = uint32

// nextSerial allocates the next reader serial for this ring.
func (r *Ring[T]) nextSerial() Serial {
	return r.serials.Add(1)
}
