// Package fuzztests houses Go fuzz harnesses for the dump loader and the checks that
// run on its output. The goal is to guard against panics and broken invariants on
// arbitrary dumps.
//
// Назначение: загружать произвольные байты как дамп и прогонять validate.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
