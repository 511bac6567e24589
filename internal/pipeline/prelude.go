package pipeline

// prelude is prepended to every candidate before it enters the box. It gives
// the generated code two helpers that speak the artifact marker protocol, so
// binary chart data never hits stdout raw. Paths passed to show_file are
// relative to the artifacts/ scratch directory.
const prelude = `import base64 as _analyst_b64
import sys as _analyst_sys

_analyst_seq = 0

def _analyst_next_seq():
    global _analyst_seq
    s = _analyst_seq
    _analyst_seq += 1
    return s

def show_image(data):
    s = _analyst_next_seq()
    _analyst_sys.stdout.flush()
    print("<<analyst:artifact seq=%d kind=inline>>" % s)
    print(_analyst_b64.b64encode(data).decode("ascii"))
    print("<<analyst:end seq=%d>>" % s)

def show_file(path):
    s = _analyst_next_seq()
    _analyst_sys.stdout.flush()
    print("<<analyst:artifact seq=%d kind=file>>" % s)
    print(path)
    print("<<analyst:end seq=%d>>" % s)

`
